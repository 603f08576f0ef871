package roster

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/logger"
)

// ReloadCallback receives each successfully validated roster.
type ReloadCallback func(*Roster) error

// Watcher reloads the roster file when it changes on disk.
// Rapid writes are debounced and rebuilds are rate limited; a roster that
// fails to load or validate is logged and never delivered.
type Watcher struct {
	path           string
	watcher        *fsnotify.Watcher
	callbacks      []ReloadCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	limiter        *rate.Limiter
	log            *zap.SugaredLogger
	done           chan struct{}
	closeOnce      sync.Once
}

// NewWatcher watches the directory holding path, since editors often replace
// files by rename rather than writing in place.
func NewWatcher(path string, debounce, minInterval time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch roster directory for %s", abs)
	}

	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	return &Watcher{
		path:           abs,
		watcher:        fsw,
		debouncePeriod: debounce,
		limiter:        rate.NewLimiter(limit, 1),
		log:            logger.ComponentLogger("roster.watcher"),
		done:           make(chan struct{}),
	}, nil
}

// OnReload registers a callback to be called with every reloaded roster
func (w *Watcher) OnReload(callback ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching; it returns immediately.
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debugw("Roster change detected",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("Roster watcher error", logger.FieldError, err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// scheduleReload debounces rapid file changes and triggers reload
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		if err := w.reload(context.Background()); err != nil {
			w.log.Errorw("Roster reload failed", logger.FieldError, err)
		}
	})
}

// reload waits for the rate limiter, loads the roster and fans it out to callbacks.
func (w *Watcher) reload(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := w.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "reload cancelled")
	}

	r, err := Load(w.path)
	if err != nil {
		return err
	}

	w.log.Infow("Roster reloaded",
		logger.FieldPath, w.path,
		logger.FieldRecords, r.Len(),
		logger.FieldRosterVersion, r.Metadata().Version)

	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(r); err != nil {
			// Keep delivering to the remaining callbacks
			w.log.Warnw("Roster reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching and cancels any pending reload.
func (w *Watcher) Stop() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
