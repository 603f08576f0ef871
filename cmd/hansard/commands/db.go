package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/hansard/am"
	"github.com/teranos/hansard/batch"
	"github.com/teranos/hansard/curation"
	"github.com/teranos/hansard/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the hansard database",
	Long: `Inspect the database holding alias submissions and batch run history.

Examples:
  hansard db stats
  hansard db stats --limit 5`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show submission counts and recent runs",
	RunE:  runDbStats,
}

var statsLimitFlag int

func init() {
	DbCmd.AddCommand(dbStatsCmd)
	dbStatsCmd.Flags().IntVar(&statsLimitFlag, "limit", 10, "Number of recent runs to show")
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	counts, err := curation.NewStore(database).Counts(ctx)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Database statistics")
	pterm.Printfln("Database path:  %s", cfg.Database.Path)
	pterm.Printfln("Submissions:    %d pending, %d approved, %d rejected",
		counts[curation.StatusPending], counts[curation.StatusApproved], counts[curation.StatusRejected])

	runs, err := batch.NewSQLRecorder(database).ListRuns(ctx, statsLimitFlag)
	if err != nil {
		return err
	}
	pterm.Println()
	if len(runs) == 0 {
		pterm.Info.Println("No batch runs recorded")
		return nil
	}

	data := pterm.TableData{{"Run", "Started", "Roster", "Transcripts", "Failed", "Finished"}}
	for _, r := range runs {
		finished := pterm.Yellow("running")
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Local().Format("15:04:05")
		}
		data = append(data, []string{
			r.ID[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			valueOr(r.RosterVersion, "-"),
			fmt.Sprint(r.Transcripts),
			fmt.Sprint(r.Failed),
			finished,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
