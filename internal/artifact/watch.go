package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// debouncer coalesces bursts of triggers into one call of fn.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	fn      func()
	stopped bool
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Watcher calls onChange after any of the watched artifact files changes.
// Parent directories are watched so that files replaced by rename (as
// builders and editors do) keep being tracked.
type Watcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	files     map[string]struct{}
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewWatcher watches paths and calls onChange once per burst of changes.
func NewWatcher(paths []string, delay time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:   fw,
		debouncer: newDebouncer(delay, onChange),
		files:     make(map[string]struct{}, len(paths)),
		logger:    logger,
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Start processes events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("artifact watcher error", "error", err)
			}
		}
	}()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[abs]; !ok {
		return
	}
	w.logger.Debug("artifact changed", "path", abs, "op", event.Op.String())
	w.debouncer.trigger()
}

// Close stops watching. A pending reload is cancelled.
func (w *Watcher) Close() error {
	w.debouncer.stop()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
