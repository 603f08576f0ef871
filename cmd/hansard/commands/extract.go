package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/hansard/batch"
	"github.com/teranos/hansard/mention"
)

// ExtractCmd extracts mentions from a single transcript
var ExtractCmd = &cobra.Command{
	Use:   "extract <transcript.json>",
	Short: "Extract and resolve mentions in one transcript",
	Long: `Detect mentions in a transcript, resolve them, and write
<session>_mentions.json and <session>_unresolved.json (plus
<session>_procedural.json when points of order were raised).

Examples:
  hansard extract sittings/2023-11-15.json
  hansard extract sitting.json --date 2023-11-15 --out results/`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var (
	extractDateFlag string
	extractOutFlag  string
	extractShowFlag bool
)

func init() {
	ExtractCmd.Flags().StringVar(&extractDateFlag, "date", "", "Override the transcript's debate date (YYYY-MM-DD)")
	ExtractCmd.Flags().StringVarP(&extractOutFlag, "out", "o", "", "Output directory (default: batch.output_dir)")
	ExtractCmd.Flags().BoolVar(&extractShowFlag, "show", false, "Print every mention found")
}

func runExtract(cmd *cobra.Command, args []string) error {
	refDate, err := parseDateFlag(extractDateFlag)
	if err != nil {
		return err
	}
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	out := extractOutFlag
	if out == "" {
		out = eng.cfg.Batch.OutputDir
	}
	runner := batch.NewRunner(eng.resolver,
		batch.WithWorkers(1),
		batch.WithOutputDir(out),
		batch.WithRefDate(refDate),
		batch.WithDetectorOptions(detectorOptions(eng.cfg)...),
	)

	res := runner.Process(args[0])
	if res.Failed() {
		return res.Err
	}

	if extractShowFlag {
		records, err := mention.LoadRecords(res.MentionsPath)
		if err != nil {
			return err
		}
		data := pterm.TableData{{"Seg", "Source", "Mention", "Target", "Method", "Confidence"}}
		for _, r := range records {
			target := r.TargetNodeID
			if target == "" {
				target = pterm.Gray("unresolved")
			}
			data = append(data, []string{
				fmt.Sprint(r.SegmentIndex), r.SourceNodeID, r.RawMention, target, r.Method.String(), formatConfidence(r.Confidence),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		pterm.Println()
	}

	pterm.Success.Printfln("%s: %d mentions, %d resolved, %d unresolved",
		res.SessionID, res.Mentions, res.Resolved, res.Unresolved)
	pterm.Info.Printfln("Mentions:   %s", res.MentionsPath)
	pterm.Info.Printfln("Unresolved: %s", res.UnresolvedPath)
	if res.ProceduralEvents > 0 {
		pterm.Info.Printfln("Procedural: %d points of order", res.ProceduralEvents)
	}
	return nil
}
