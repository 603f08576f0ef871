package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/hansard/alias"
	"github.com/teranos/hansard/am"
	"github.com/teranos/hansard/batch"
	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/logger"
	"github.com/teranos/hansard/resolver"
	"github.com/teranos/hansard/roster"
)

// WatchCmd keeps the index fresh and extracts transcripts dropped into an inbox
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index on roster changes and extract inbox transcripts",
	Long: `Watch the roster file and rebuild the alias index whenever it changes.
A roster that fails validation is logged and the previous index stays in
use. Transcripts written to the inbox directory are extracted with the
index current at that moment.

Examples:
  hansard watch
  hansard watch --inbox incoming/ --out results/`,
	RunE: runWatch,
}

var (
	watchInboxFlag string
	watchOutFlag   string
)

func init() {
	WatchCmd.Flags().StringVar(&watchInboxFlag, "inbox", "", "Directory to watch for transcripts (default: watch.inbox_dir)")
	WatchCmd.Flags().StringVarP(&watchOutFlag, "out", "o", "", "Output directory (default: batch.output_dir)")
}

// inboxSettle is how long a transcript must go unwritten before it is read.
const inboxSettle = 750 * time.Millisecond

func runWatch(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	cfg := eng.cfg
	log := logger.ComponentLogger("watch")

	var current atomic.Pointer[resolver.Resolver]
	current.Store(eng.resolver)

	rw, err := roster.NewWatcher(rosterPath(cmd, cfg),
		time.Duration(cfg.Watch.DebounceMS)*time.Millisecond,
		time.Duration(cfg.Watch.MinIntervalMS)*time.Millisecond)
	if err != nil {
		return err
	}
	rw.OnReload(func(r *roster.Roster) error {
		res, err := newResolver(cfg, alias.Build(r))
		if err != nil {
			return err
		}
		current.Store(res)
		pterm.Success.Printfln("Index rebuilt from roster %s (%d records)", r.Metadata().Version, r.Len())
		return nil
	})
	rw.Start()
	defer rw.Stop()

	inbox := watchInboxFlag
	if inbox == "" {
		inbox = cfg.Watch.InboxDir
	}
	out := watchOutFlag
	if out == "" {
		out = cfg.Batch.OutputDir
	}
	if err := os.MkdirAll(inbox, am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "create inbox %s", inbox)
	}

	var recorder batch.Recorder
	if cfg.Batch.Record {
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		recorder = batch.NewSQLRecorder(database)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	iw := &inboxWatcher{
		cfg:      cfg,
		current:  &current,
		out:      out,
		recorder: recorder,
		log:      log,
		pending:  make(map[string]*time.Timer),
	}

	pterm.Info.Printfln("Watching roster %s and inbox %s (Ctrl+C to stop)", rosterPath(cmd, cfg), inbox)
	return iw.run(ctx, inbox)
}

type inboxWatcher struct {
	cfg      *am.Config
	current  *atomic.Pointer[resolver.Resolver]
	out      string
	recorder batch.Recorder
	log      *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

func (iw *inboxWatcher) run(ctx context.Context, dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create inbox watcher")
	}
	defer fsw.Close()
	if err := fsw.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch inbox %s", dir)
	}

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) || !batch.IsTranscriptFile(event.Name) {
				continue
			}
			iw.schedule(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			iw.log.Warnw("Inbox watcher error", logger.FieldError, err)

		case <-ctx.Done():
			iw.mu.Lock()
			iw.closed = true
			for _, t := range iw.pending {
				t.Stop()
			}
			iw.mu.Unlock()
			iw.wg.Wait()
			pterm.Info.Println("Stopped")
			return nil
		}
	}
}

// schedule extracts path once writes to it have settled.
func (iw *inboxWatcher) schedule(ctx context.Context, path string) {
	iw.mu.Lock()
	defer iw.mu.Unlock()
	if t, ok := iw.pending[path]; ok {
		t.Stop()
	}
	iw.pending[path] = time.AfterFunc(inboxSettle, func() {
		iw.mu.Lock()
		delete(iw.pending, path)
		if iw.closed {
			iw.mu.Unlock()
			return
		}
		iw.wg.Add(1)
		iw.mu.Unlock()
		defer iw.wg.Done()
		iw.extract(ctx, path)
	})
}

func (iw *inboxWatcher) extract(ctx context.Context, path string) {
	res := iw.current.Load()
	opts := []batch.Option{
		batch.WithWorkers(1),
		batch.WithOutputDir(iw.out),
		batch.WithRosterVersion(res.Index().Version()),
		batch.WithDetectorOptions(detectorOptions(iw.cfg)...),
	}
	if iw.recorder != nil {
		opts = append(opts, batch.WithRecorder(iw.recorder))
	}

	summary, err := batch.NewRunner(res, opts...).Run(ctx, []string{filepath.Clean(path)})
	if err != nil {
		iw.log.Errorw("Inbox extraction failed", logger.FieldPath, path, logger.FieldError, err)
		return
	}
	for _, r := range summary.Results {
		if r.Failed() {
			pterm.Error.Printfln("%s: %v", filepath.Base(r.Path), r.Err)
			continue
		}
		pterm.Success.Printfln("%s: %d mentions, %d resolved, %d unresolved",
			r.SessionID, r.Mentions, r.Resolved, r.Unresolved)
	}
}
