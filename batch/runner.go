// Package batch extracts mentions from many transcripts at once. Each
// transcript gets its own detector and unresolved log; a failure in one
// transcript is reported in the summary and does not stop the others.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/logger"
	"github.com/teranos/hansard/mention"
)

// DefaultOutputDir is where per-transcript files go when none is configured.
const DefaultOutputDir = "output"

// Output file suffixes, appended to the output name. The output name is the
// session id, or "<session>__<file stem>" when several transcripts of one run
// share a session id.
const (
	MentionsSuffix   = "_mentions.json"
	UnresolvedSuffix = "_unresolved.json"
	ProceduralSuffix = "_procedural.json"
)

// Result is the outcome of one transcript.
type Result struct {
	Path             string `json:"path"`
	SessionID        string `json:"session_id,omitempty"`
	Mentions         int    `json:"mentions"`
	Resolved         int    `json:"resolved"`
	Unresolved       int    `json:"unresolved"`
	ProceduralEvents int    `json:"procedural_events"`
	MentionsPath     string `json:"mentions_path,omitempty"`
	UnresolvedPath   string `json:"unresolved_path,omitempty"`
	Err              error  `json:"-"`
}

// Failed reports whether the transcript could not be processed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Summary totals a run. Results are in input order.
type Summary struct {
	RunID       string        `json:"run_id"`
	Transcripts int           `json:"transcripts"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Mentions    int           `json:"mentions"`
	Resolved    int           `json:"resolved"`
	Unresolved  int           `json:"unresolved"`
	Duration    time.Duration `json:"duration"`
	Results     []Result      `json:"results"`
	Failures    []Failure     `json:"failures,omitempty"`
}

// Failure names a transcript that could not be processed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Runner processes transcripts with a bounded worker pool.
type Runner struct {
	res           mention.Resolver
	workers       int
	outputDir     string
	recorder      Recorder
	detectorOpts  []mention.Option
	refDate       time.Time
	rosterVersion string
	log           *zap.SugaredLogger
}

// Option configures a Runner
type Option func(*Runner)

// WithWorkers bounds concurrent transcripts; zero or less means one per CPU
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithOutputDir sets where mention, unresolved and procedural files are written
func WithOutputDir(dir string) Option {
	return func(r *Runner) { r.outputDir = dir }
}

// WithRecorder records each run and transcript outcome
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithDetectorOptions passes options to every per-transcript detector
func WithDetectorOptions(opts ...mention.Option) Option {
	return func(r *Runner) { r.detectorOpts = append(r.detectorOpts, opts...) }
}

// WithRefDate overrides every transcript's debate date
func WithRefDate(t time.Time) Option {
	return func(r *Runner) { r.refDate = t }
}

// WithRosterVersion stamps recorded runs with the roster version in use
func WithRosterVersion(v string) Option {
	return func(r *Runner) { r.rosterVersion = v }
}

// WithLogger sets the runner's logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a runner resolving through res.
func NewRunner(res mention.Resolver, opts ...Option) *Runner {
	r := &Runner{
		res:       res,
		outputDir: DefaultOutputDir,
		log:       logger.ComponentLogger("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = runtime.NumCPU()
	}
	return r
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// Run processes every path. Per-transcript failures land in the summary;
// the returned error is reserved for cancellation and for a recorder that
// cannot begin the run.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := r.log.With(logger.FieldRunID, runID)

	if r.recorder != nil {
		if err := r.recorder.BeginRun(ctx, runID, r.rosterVersion, start); err != nil {
			return nil, errors.Wrap(err, "failed to begin run")
		}
	}

	log.Infow("Batch started",
		logger.FieldTotalCount, len(paths),
		"workers", r.workers,
		"output_dir", r.outputDir)

	names := outputNames(paths)
	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			results[i] = Result{Path: path, Err: ctx.Err()}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return nil
			}
			results[i] = r.process(path, names[i])
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{RunID: runID, Transcripts: len(paths), Results: results}
	for _, res := range results {
		if res.Failed() {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Path: res.Path, Error: res.Err.Error()})
			log.Warnw("Transcript failed", logger.FieldPath, res.Path, logger.FieldError, res.Err)
		} else {
			summary.Succeeded++
		}
		summary.Mentions += res.Mentions
		summary.Resolved += res.Resolved
		summary.Unresolved += res.Unresolved
	}
	summary.Duration = time.Since(start)

	if r.recorder != nil {
		r.record(ctx, log, summary)
	}

	log.Infow("Batch finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"mentions", summary.Mentions,
		"resolved", summary.Resolved,
		"unresolved", summary.Unresolved,
		logger.FieldDurationMS, summary.Duration.Milliseconds())

	if err := ctx.Err(); err != nil {
		return summary, errors.Wrap(err, "batch cancelled")
	}
	return summary, nil
}

// record writes outcomes after the pool drains. Recording is best effort:
// the output files are already on disk.
func (r *Runner) record(ctx context.Context, log *zap.SugaredLogger, s *Summary) {
	ctx = context.WithoutCancel(ctx)
	for _, res := range s.Results {
		if err := r.recorder.RecordResult(ctx, s.RunID, res); err != nil {
			log.Warnw("Failed to record transcript result", logger.FieldPath, res.Path, logger.FieldError, err)
		}
	}
	if err := r.recorder.FinishRun(ctx, s); err != nil {
		log.Warnw("Failed to finish run record", logger.FieldError, err)
	}
}

// Process extracts a single transcript and writes its output files, named
// after its session id.
func (r *Runner) Process(path string) Result {
	return r.process(path, "")
}

func (r *Runner) process(path, name string) Result {
	res := Result{Path: path}

	t, err := mention.LoadTranscript(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.SessionID = t.SessionID

	opts := append(append([]mention.Option(nil), r.detectorOpts...), mention.WithUnresolvedLog(mention.NewUnresolvedLog()))
	det := mention.NewDetector(r.res, opts...)
	records := det.Extract(*t, r.refDate)

	res.Mentions = len(records)
	for _, rec := range records {
		if rec.Resolved() {
			res.Resolved++
		}
	}
	res.Unresolved = det.UnresolvedCount()

	if name == "" {
		name = filepath.Base(t.SessionID)
	}
	base := filepath.Join(r.outputDir, name)
	res.MentionsPath = base + MentionsSuffix
	if err := mention.SaveRecords(records, res.MentionsPath); err != nil {
		res.Err = err
		return res
	}
	res.UnresolvedPath = base + UnresolvedSuffix
	if err := det.SaveUnresolvedLog(res.UnresolvedPath); err != nil {
		res.Err = err
		return res
	}

	if events := mention.DetectPointsOfOrder(*t); len(events) > 0 {
		res.ProceduralEvents = len(events)
		if err := mention.SaveEvents(events, base+ProceduralSuffix); err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

// outputNames assigns each path a distinct output name. Transcripts whose
// session ids are unique in the batch keep them; every transcript sharing
// one gets its source file stem appended, so no file is written twice.
// Unreadable paths get an empty name and fail when processed.
func outputNames(paths []string) []string {
	names := make([]string, len(paths))
	counts := make(map[string]int)
	for i, p := range paths {
		id, err := mention.ReadSessionID(p)
		if err != nil {
			continue
		}
		names[i] = filepath.Base(id)
		counts[nameKey(names[i])]++
	}

	used := make(map[string]bool)
	for _, n := range names {
		if n != "" && counts[nameKey(n)] == 1 {
			used[nameKey(n)] = true
		}
	}
	for i, p := range paths {
		if names[i] == "" || counts[nameKey(names[i])] == 1 {
			continue
		}
		prefix := names[i] + "__" + strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		name := prefix
		for n := 2; used[nameKey(name)]; n++ {
			name = fmt.Sprintf("%s_%d", prefix, n)
		}
		used[nameKey(name)] = true
		names[i] = name
	}
	return names
}

// nameKey folds case so names differing only in case count as one on
// case-insensitive filesystems.
func nameKey(name string) string {
	return strings.ToLower(name)
}
