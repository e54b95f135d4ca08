package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceDelay is the default delay for debouncing file system events.
// Editors typically produce several write events per save.
const DebounceDelay = 100 * time.Millisecond

// Watcher monitors the configuration file and reloads it on change.
// A reload that fails to parse keeps the previous configuration.
//
// Thread-safety: all public methods are safe for concurrent use.
type Watcher struct {
	path     string
	onChange func(*Config)
	logger   *slog.Logger

	watcher *fsnotify.Watcher

	debounceMu    sync.Mutex
	debounceDelay time.Duration
	debounceTimer *time.Timer

	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
}

// NewWatcher creates a watcher for the given config file path.
// onChange is invoked with the freshly loaded configuration after each
// successful reload. Call Start() to begin watching and Close() when done.
func NewWatcher(path string, logger *slog.Logger, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:          path,
		onChange:      onChange,
		logger:        logger,
		watcher:       fw,
		debounceDelay: DebounceDelay,
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}, nil
}

// SetDebounceDelay sets the debounce delay for batching rapid changes.
// Must be called before Start().
func (w *Watcher) SetDebounceDelay(d time.Duration) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	w.debounceDelay = d
}

// Start begins watching the config file's directory. Watching the directory
// rather than the file survives the rename-over-write most editors do.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go w.loop()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		<-w.stopped
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("config watcher error", "error", err)
			}
		}
	}
}

// scheduleReload (re)arms the debounce timer.
func (w *Watcher) scheduleReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("config reload failed, keeping previous configuration",
				"path", w.path, "error", err)
		}
		return
	}

	if w.logger != nil {
		w.logger.Info("configuration reloaded", "path", w.path)
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
