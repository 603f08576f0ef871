package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/hansard/alias"
)

// IndexCmd inspects the alias index built from the roster
var IndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or export the alias index",
	Long: `Build the alias index from the roster and export or summarize it.

Examples:
  hansard index export                     # writes alias_index.json
  hansard index export -o build/index.json
  hansard index stats`,
}

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the alias index as JSON",
	RunE:  runIndexExport,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show alias index statistics and collisions",
	RunE:  runIndexStats,
}

var indexOutFlag string

func init() {
	indexExportCmd.Flags().StringVarP(&indexOutFlag, "out", "o", "alias_index.json", "Output path")
	IndexCmd.AddCommand(indexExportCmd)
	IndexCmd.AddCommand(indexStatsCmd)
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	if err := alias.Save(eng.index, indexOutFlag); err != nil {
		return err
	}
	stats := eng.index.Stats()
	pterm.Success.Printfln("Wrote %s (%d aliases, %d portfolio titles, %d collisions)",
		indexOutFlag, stats.StaticAliases, stats.PortfolioAliases, stats.Collisions)
	return nil
}

func runIndexStats(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	stats := eng.index.Stats()
	meta := eng.roster.Metadata()

	pterm.DefaultSection.Println("Alias index")
	pterm.Printfln("Roster version:    %s", valueOr(meta.Version, "unversioned"))
	pterm.Printfln("Parliament:        %s", valueOr(meta.Parliament, "-"))
	pterm.Printfln("Records:           %d", stats.Records)
	pterm.Printfln("Static aliases:    %d", stats.StaticAliases)
	pterm.Printfln("Portfolio aliases: %d", stats.PortfolioAliases)
	pterm.Printfln("Collisions:        %d", stats.Collisions)

	collisions := eng.index.Collisions()
	if len(collisions) == 0 {
		return nil
	}
	pterm.Println()
	data := pterm.TableData{{"Alias", "Claimants"}}
	for _, e := range collisions {
		data = append(data, []string{e.Alias, strings.Join(e.NodeIDs, ", ")})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
