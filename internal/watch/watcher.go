package watch

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"shooting_stats/internal/logging"
)

// RunFunc re-runs the report.
type RunFunc func(ctx context.Context) error

// Watcher re-runs the report when the data file changes. Bursts of events
// within the debounce window cause one run, and runs never overlap.
type Watcher struct {
	path     string
	debounce time.Duration
	run      RunFunc
	log      *zap.Logger
	runs     int64
	done     chan struct{}
}

func New(path string, debounce time.Duration, run RunFunc, log *zap.Logger) *Watcher {
	log = logging.OrNop(log)
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		run:      run,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start watches the data file's directory, since editors often replace the
// file instead of writing it in place. It returns once the watch is set up.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	w.log.Info("watching data file", zap.String("path", w.path), zap.Duration("debounce", w.debounce))
	go w.loop(ctx, watcher)
	return nil
}

// Done is closed when the watch loop exits.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Runs reports how many runs the watcher has triggered.
func (w *Watcher) Runs() int64 { return atomic.LoadInt64(&w.runs) }

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(w.done)
	defer watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if w.relevant(evt) {
				w.log.Debug("data file changed", zap.String("op", evt.Op.String()))
				timer.Reset(w.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			w.trigger(ctx)
		}
	}
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if filepath.Clean(evt.Name) != w.path {
		return false
	}
	return evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) trigger(ctx context.Context) {
	atomic.AddInt64(&w.runs, 1)
	if err := w.run(ctx); err != nil {
		w.log.Error("re-run failed", zap.Error(err))
		return
	}
	w.log.Info("re-run finished")
}
