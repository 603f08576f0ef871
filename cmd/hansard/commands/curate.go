package commands

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/hansard/am"
	"github.com/teranos/hansard/curation"
	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/roster"
)

// CurateCmd manages the alias submission queue
var CurateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Review community alias submissions",
	Long: `Queue, review and apply alias submissions.

An addition gives a member a new alias. A correction moves an alias from
whoever holds it to the named member. Approved submissions take effect
only when 'curate apply' writes a new roster.

Examples:
  hansard curate submit --alias "Papa" --target mp_davis_brave \
      --evidence "Used by the Member for Marco City, 15 Nov 2023" --submitter clerk
  hansard curate ls --status pending
  hansard curate approve <id> --reviewer curator
  hansard curate reject <id> --reviewer curator --notes "not used in the House"
  hansard curate apply -o golden_record/roster.next.json`,
}

var curateSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Queue an alias submission",
	RunE:  runCurateSubmit,
}

var curateLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List submissions",
	RunE:  runCurateLs,
}

var curateApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE:  runCurateReview(curation.StatusApproved),
}

var curateRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE:  runCurateReview(curation.StatusRejected),
}

var curateApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write a roster with approved submissions folded in",
	RunE:  runCurateApply,
}

var (
	curateAliasFlag     string
	curateTargetFlag    string
	curatePreviousFlag  string
	curateEvidenceFlag  string
	curateSubmitterFlag string
	curateCorrectFlag   bool
	curateStatusFlag    string
	curateReviewerFlag  string
	curateNotesFlag     string
	curateOutFlag       string
	curateInPlaceFlag   bool
)

func init() {
	curateSubmitCmd.Flags().StringVar(&curateAliasFlag, "alias", "", "Alias as heard in debate")
	curateSubmitCmd.Flags().StringVar(&curateTargetFlag, "target", "", "Node id the alias refers to")
	curateSubmitCmd.Flags().StringVar(&curatePreviousFlag, "previous", "", "Node id currently holding the alias (corrections)")
	curateSubmitCmd.Flags().StringVar(&curateEvidenceFlag, "evidence", "", "Where the alias was used (at least 10 characters)")
	curateSubmitCmd.Flags().StringVar(&curateSubmitterFlag, "submitter", "", "Who is submitting")
	curateSubmitCmd.Flags().BoolVar(&curateCorrectFlag, "correction", false, "Move the alias instead of adding it")

	curateLsCmd.Flags().StringVar(&curateStatusFlag, "status", "", "Filter by status: pending, approved, rejected")

	for _, c := range []*cobra.Command{curateApproveCmd, curateRejectCmd} {
		c.Flags().StringVar(&curateReviewerFlag, "reviewer", "", "Who is reviewing")
		c.Flags().StringVar(&curateNotesFlag, "notes", "", "Review notes (required to reject)")
	}

	curateApplyCmd.Flags().StringVarP(&curateOutFlag, "out", "o", "", "Where to write the new roster")
	curateApplyCmd.Flags().BoolVar(&curateInPlaceFlag, "in-place", false, "Overwrite the configured roster")

	CurateCmd.AddCommand(curateSubmitCmd)
	CurateCmd.AddCommand(curateLsCmd)
	CurateCmd.AddCommand(curateApproveCmd)
	CurateCmd.AddCommand(curateRejectCmd)
	CurateCmd.AddCommand(curateApplyCmd)
}

func openCurationStore() (*curation.Store, *sql.DB, *am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to load configuration")
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return curation.NewStore(database), database, cfg, nil
}

func runCurateSubmit(cmd *cobra.Command, args []string) error {
	store, database, _, err := openCurationStore()
	if err != nil {
		return err
	}
	defer database.Close()

	s := &curation.Submission{
		Kind:           curation.KindAddition,
		Alias:          curateAliasFlag,
		TargetNodeID:   curateTargetFlag,
		PreviousNodeID: curatePreviousFlag,
		Evidence:       curateEvidenceFlag,
		Submitter:      curateSubmitterFlag,
	}
	if curateCorrectFlag {
		s.Kind = curation.KindCorrection
	}
	if err := store.Submit(cmd.Context(), s); err != nil {
		return err
	}
	pterm.Success.Printfln("Queued %s %q -> %s as %s", s.Kind, s.Alias, s.TargetNodeID, s.ID)
	return nil
}

func runCurateLs(cmd *cobra.Command, args []string) error {
	status := curation.Status(strings.ToLower(strings.TrimSpace(curateStatusFlag)))
	switch status {
	case "", curation.StatusPending, curation.StatusApproved, curation.StatusRejected:
	default:
		return errors.WithHint(
			errors.NewInvalidRequestError("unknown status %q", curateStatusFlag),
			"use pending, approved or rejected")
	}

	store, database, _, err := openCurationStore()
	if err != nil {
		return err
	}
	defer database.Close()

	subs, err := store.List(cmd.Context(), status)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		pterm.Info.Println("No submissions")
		return nil
	}

	data := pterm.TableData{{"ID", "Kind", "Alias", "Target", "Status", "Submitter", "Submitted"}}
	for _, s := range subs {
		data = append(data, []string{
			s.ID[:8], string(s.Kind), s.Alias, s.TargetNodeID, string(s.Status), s.Submitter,
			s.SubmittedAt.Format("2006-01-02 15:04"),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runCurateReview(status curation.Status) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, database, _, err := openCurationStore()
		if err != nil {
			return err
		}
		defer database.Close()

		id, err := resolveSubmissionID(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		if status == curation.StatusApproved {
			err = store.Approve(cmd.Context(), id, curateReviewerFlag, curateNotesFlag)
		} else {
			err = store.Reject(cmd.Context(), id, curateReviewerFlag, curateNotesFlag)
		}
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Submission %s %s", id, status)
		return nil
	}
}

// resolveSubmissionID accepts a full id or the unique prefix shown by 'curate ls'.
func resolveSubmissionID(ctx context.Context, store *curation.Store, prefix string) (string, error) {
	if _, err := store.Get(ctx, prefix); err == nil {
		return prefix, nil
	}
	subs, err := store.List(ctx, "")
	if err != nil {
		return "", err
	}
	var match string
	for _, s := range subs {
		if strings.HasPrefix(s.ID, prefix) {
			if match != "" {
				return "", errors.NewInvalidRequestError("id prefix %q is ambiguous", prefix)
			}
			match = s.ID
		}
	}
	if match == "" {
		return "", errors.NewNotFoundError("submission %s", prefix)
	}
	return match, nil
}

func runCurateApply(cmd *cobra.Command, args []string) error {
	store, database, cfg, err := openCurationStore()
	if err != nil {
		return err
	}
	defer database.Close()

	src := rosterPath(cmd, cfg)
	out := curateOutFlag
	switch {
	case out != "" && curateInPlaceFlag:
		return errors.NewInvalidRequestError("--out and --in-place are mutually exclusive")
	case curateInPlaceFlag:
		out = src
	case out == "":
		return errors.WithHint(
			errors.NewInvalidRequestError("no output path"),
			"pass -o <path> or --in-place")
	}

	r, err := roster.Load(src)
	if err != nil {
		return err
	}
	subs, err := store.List(cmd.Context(), curation.StatusApproved)
	if err != nil {
		return err
	}

	next, report, err := curation.Apply(r, subs)
	if err != nil {
		return err
	}
	for _, s := range report.Skipped {
		pterm.Warning.Printfln("Skipped %s (%q): %s", s.ID, s.Alias, s.Reason)
	}
	if err := roster.Write(next, out); err != nil {
		return err
	}
	pterm.Success.Printfln("Applied %s, wrote %s", plural(len(report.Applied), "submission"), out)
	return nil
}
