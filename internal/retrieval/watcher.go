package retrieval

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"skillgap/internal/errors"
)

// Watcher triggers a callback when markdown files in the knowledge-base
// folders change. Bursts of events are collapsed into one call.
type Watcher struct {
	mu sync.Mutex

	dirs          []string
	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onChange func()
	logger   *errors.Logger

	running bool
}

// NewWatcher creates a watcher over the given source folders.
func NewWatcher(sources []Source, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *Watcher {
	if debounceDelay == 0 {
		debounceDelay = 2 * time.Second
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	dirs := make([]string, 0, len(sources))
	for _, s := range sources {
		dirs = append(dirs, s.Dir)
	}
	return &Watcher{
		dirs:          dirs,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching. Folders that do not exist are skipped with a warning.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("knowledge base watcher is already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = fsw
	w.stopChan = make(chan struct{})

	var watched []string
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("Failed to watch knowledge base folder", "directory", dir, "error", err)
			continue
		}
		watched = append(watched, dir)
	}

	w.running = true
	go w.watchLoop(fsw, w.stopChan)

	w.logger.Info("Knowledge base watcher started",
		"directories", watched,
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	w.logger.Info("Knowledge base watcher stopped")
	return nil
}

func (w *Watcher) watchLoop(fsw *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "File watcher error")

		case <-w.reloadChan:
			w.logger.Info("Knowledge base changed, rebuilding index")
			w.onChange()

		case <-stop:
			return
		}
	}
}

// shouldProcessEvent accepts content changes to markdown files.
func shouldProcessEvent(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// scheduleReload restarts the debounce timer.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}
