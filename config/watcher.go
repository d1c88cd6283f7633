package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches every workspace root's directory for changes to kiln
// config files (including override files) and reports the affected root
// through a callback, debounced per root so editor save bursts collapse
// into one notification.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *logrus.Entry
	onChange func(root string)

	mu     sync.Mutex
	timers map[string]*time.Timer
	roots  map[string]string // watched directory -> root identifier
}

// NewWatcher creates a watcher over the given roots. debounceMs <= 0 falls
// back to 100ms. onChange runs on the watcher goroutine's timer after the
// debounce window closes.
func NewWatcher(roots []string, debounceMs int, onChange func(root string), logger *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = 100
	}

	w := &Watcher{
		watcher:  fsw,
		debounce: time.Duration(debounceMs) * time.Millisecond,
		logger:   logger,
		onChange: onChange,
		timers:   make(map[string]*time.Timer),
		roots:    make(map[string]string),
	}

	for _, root := range roots {
		// Watch the directory; fsnotify delivers events for files created
		// inside it, so a kiln.yml that does not exist yet is still seen.
		if err := fsw.Add(root); err != nil {
			w.logger.WithError(err).WithField("root", root).Warn("Failed to watch root")
			continue
		}
		w.roots[filepath.Clean(root)] = root
	}

	return w, nil
}

// Start processes filesystem events until the context is cancelled. It
// blocks, so callers run it on its own goroutine.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isConfigFileName(filepath.Base(event.Name)) {
				continue
			}

			w.mu.Lock()
			root, ok := w.roots[filepath.Dir(event.Name)]
			w.mu.Unlock()
			if !ok {
				continue
			}
			w.scheduleNotify(root)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.Close()
			return
		}
	}
}

// scheduleNotify arms (or re-arms) root's debounce timer. The callback
// fires once the root has been quiet for the debounce window, so the last
// write of a burst is what consumers end up reading.
func (w *Watcher) scheduleNotify(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[root]; ok {
		timer.Stop()
	}
	w.timers[root] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, root)
		w.mu.Unlock()

		w.logger.WithField("root", root).Info("Configuration changed")
		w.onChange(root)
	})
}

// Close stops the watcher and cancels pending debounce timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for root, timer := range w.timers {
		timer.Stop()
		delete(w.timers, root)
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

// isConfigFileName reports whether name is a recognized workspace config
// or override file name.
func isConfigFileName(name string) bool {
	for _, candidate := range configFileNames {
		if name == candidate {
			return true
		}
	}
	for _, candidate := range overrideFileNames {
		if name == candidate {
			return true
		}
	}
	return false
}
