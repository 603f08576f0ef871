package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/hansard/alias"
	"github.com/teranos/hansard/am"
	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/roster"
)

// RosterCmd works with the canonical roster
var RosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Validate the canonical roster",
	Long: `Check a roster document: node ids, required fields, semantic version,
and that no portfolio title is held by two members on the same day.

Examples:
  hansard roster validate
  hansard roster validate golden_record/roster.yaml`,
}

var rosterValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a roster document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRosterValidate,
}

func init() {
	RosterCmd.AddCommand(rosterValidateCmd)
}

func runRosterValidate(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		path = rosterPath(cmd, cfg)
	}

	r, err := roster.Load(path)
	if err != nil {
		var verr *roster.ValidationError
		if errors.As(err, &verr) {
			pterm.Error.Printfln("%s has %s", path, plural(len(verr.Problems), "problem"))
			for _, p := range verr.Problems {
				pterm.Printfln("  - %s", p)
			}
		}
		return err
	}

	stats := alias.Build(r).Stats()
	pterm.Success.Printfln("%s is valid: %s, %d aliases, %s",
		path, plural(r.Len(), "record"), stats.StaticAliases, plural(stats.Collisions, "collision"))
	return nil
}
