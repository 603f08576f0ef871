package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/hansard/batch"
	"github.com/teranos/hansard/errors"
)

// BatchCmd extracts mentions from many transcripts
var BatchCmd = &cobra.Command{
	Use:   "batch <dir|file>...",
	Short: "Extract mentions from a directory of transcripts",
	Long: `Process every transcript in the given directories (or files) with a bounded
worker pool. One transcript failing does not stop the others; failures are
listed in the summary. Each run is recorded in the database unless
batch.record is false or --no-record is given.

Examples:
  hansard batch sittings/
  hansard batch sittings/ --workers 8 --out results/
  hansard batch a.json b.json --no-record`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchWorkersFlag  int
	batchOutFlag      string
	batchDateFlag     string
	batchNoRecordFlag bool
)

func init() {
	BatchCmd.Flags().IntVarP(&batchWorkersFlag, "workers", "w", -1, "Concurrent transcripts (default: batch.workers, 0 = one per CPU)")
	BatchCmd.Flags().StringVarP(&batchOutFlag, "out", "o", "", "Output directory (default: batch.output_dir)")
	BatchCmd.Flags().StringVar(&batchDateFlag, "date", "", "Override every transcript's debate date (YYYY-MM-DD)")
	BatchCmd.Flags().BoolVar(&batchNoRecordFlag, "no-record", false, "Do not record the run in the database")
}

func runBatch(cmd *cobra.Command, args []string) error {
	refDate, err := parseDateFlag(batchDateFlag)
	if err != nil {
		return err
	}
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	var paths []string
	for _, arg := range args {
		found, err := batch.Discover(arg)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		pterm.Warning.Println("No transcripts found")
		return nil
	}

	workers := eng.cfg.Batch.Workers
	if batchWorkersFlag >= 0 {
		workers = batchWorkersFlag
	}
	out := batchOutFlag
	if out == "" {
		out = eng.cfg.Batch.OutputDir
	}

	opts := []batch.Option{
		batch.WithWorkers(workers),
		batch.WithOutputDir(out),
		batch.WithRefDate(refDate),
		batch.WithRosterVersion(eng.roster.Metadata().Version),
		batch.WithDetectorOptions(detectorOptions(eng.cfg)...),
	}
	if eng.cfg.Batch.Record && !batchNoRecordFlag {
		database, err := openDatabase(eng.cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		opts = append(opts, batch.WithRecorder(batch.NewSQLRecorder(database)))
	}
	runner := batch.NewRunner(eng.resolver, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Processing %d transcripts with %d workers...", len(paths), runner.Workers()))
	summary, runErr := runner.Run(ctx, paths)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if summary == nil {
		return runErr
	}

	printSummary(summary, out)
	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return errors.Newf("%d of %d transcripts failed", summary.Failed, summary.Transcripts)
	}
	return nil
}

func printSummary(s *batch.Summary, out string) {
	data := pterm.TableData{{"Session", "Mentions", "Resolved", "Unresolved", "Status"}}
	for _, r := range s.Results {
		status := pterm.Green("ok")
		if r.Failed() {
			status = pterm.Red("failed")
		}
		session := r.SessionID
		if session == "" {
			session = r.Path
		}
		data = append(data, []string{
			session, fmt.Sprint(r.Mentions), fmt.Sprint(r.Resolved), fmt.Sprint(r.Unresolved), status,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Println()

	rate := 0.0
	if s.Mentions > 0 {
		rate = 100 * float64(s.Resolved) / float64(s.Mentions)
	}
	pterm.Info.Printfln("Run %s", s.RunID)
	pterm.Printfln("  Transcripts: %d (%d succeeded, %d failed)", s.Transcripts, s.Succeeded, s.Failed)
	pterm.Printfln("  Mentions:    %d (%d resolved, %d unresolved, %.1f%%)", s.Mentions, s.Resolved, s.Unresolved, rate)
	pterm.Printfln("  Output:      %s", out)
	pterm.Printfln("  Duration:    %s", s.Duration.Round(time.Millisecond))

	for _, f := range s.Failures {
		pterm.Error.Printfln("%s: %s", f.Path, f.Error)
	}
}
