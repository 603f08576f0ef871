package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/hansard/display"
	"github.com/teranos/hansard/resolver"
)

// ResolveCmd resolves mention strings against the roster
var ResolveCmd = &cobra.Command{
	Use:   "resolve <mention>...",
	Short: "Resolve mention strings to roster node ids",
	Long: `Resolve one or more raw mentions through the exact, dialect, fuzzy and
portfolio stages and show which node each binds to.

Examples:
  hansard resolve "The Member for Marco City"
  hansard resolve "Minister of Works" --date 2023-08-01
  hansard resolve "da memba for Englaston" Adrian --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var resolveDateFlag string

func init() {
	ResolveCmd.Flags().StringVar(&resolveDateFlag, "date", "", "Debate date (YYYY-MM-DD) for portfolio and seat lookups")
	ResolveCmd.Flags().Bool("json", false, "Output results as JSON")
}

type resolution struct {
	Mention string `json:"mention"`
	resolver.Result
}

func runResolve(cmd *cobra.Command, args []string) error {
	refDate, err := parseDateFlag(resolveDateFlag)
	if err != nil {
		return err
	}
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	results := make([]resolution, 0, len(args))
	for _, m := range args {
		results = append(results, resolution{Mention: m, Result: eng.resolver.Resolve(m, refDate)})
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), results)
	}

	data := pterm.TableData{{"Mention", "Node", "Method", "Confidence", "Collision"}}
	for _, r := range results {
		node := r.NodeID
		if node == "" {
			node = pterm.Gray("unresolved")
		}
		collision := ""
		if r.CollisionWarning {
			collision = pterm.Yellow("yes")
		}
		data = append(data, []string{r.Mention, node, r.Method.String(), formatConfidence(r.Confidence), collision})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
