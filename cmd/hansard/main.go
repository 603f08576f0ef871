package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/hansard/am"
	"github.com/teranos/hansard/cmd/hansard/commands"
	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hansard",
	Short: "hansard - resolve member mentions in parliamentary transcripts",
	Long: `hansard - Mention resolution for House of Assembly transcripts.

hansard finds references to members in diarized debate transcripts
("the Member for Marco City", "the Minister of Works", "my honourable
friend") and binds each to a canonical roster node.

Available commands:
  resolve - Resolve mention strings against the roster
  extract - Extract mentions from one transcript
  batch   - Extract mentions from many transcripts
  watch   - Rebuild on roster changes, extract inbox transcripts
  index   - Export or summarize the alias index
  roster  - Validate the canonical roster
  curate  - Review community alias submissions
  db      - Database statistics
  am      - Show configuration ("I am")

Examples:
  hansard resolve "Minister of Works" --date 2023-08-01
  hansard batch sittings/ -o results/
  hansard curate ls --status pending`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if err := am.UseFile(path); err != nil {
				return errors.WithHint(err, "--config expects a TOML file")
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (TOML), highest precedence after the environment")
	rootCmd.PersistentFlags().String("roster", "", "Roster document (overrides roster.path)")

	rootCmd.AddCommand(commands.ResolveCmd)
	rootCmd.AddCommand(commands.ExtractCmd)
	rootCmd.AddCommand(commands.BatchCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.IndexCmd)
	rootCmd.AddCommand(commands.RosterCmd)
	rootCmd.AddCommand(commands.CurateCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
