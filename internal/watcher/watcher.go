// Package watcher keeps the index fresh while files change on disk.
// It watches the repository tree recursively with fsnotify, debounces
// rapid saves, and feeds settled events to the indexer.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"repolens/internal/indexer"
	"repolens/internal/logging"
)

// Watcher monitors a repository root and re-indexes changed files.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	indexer     *indexer.Indexer
	root        string
	rules       *indexer.IgnoreRules
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity for debugging and the stats command.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Reindexed     int
	Removed       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// New creates a Watcher over the given root. debounce controls how
// long a file must be quiet before it is re-indexed.
func New(root string, ix *indexer.Indexer, rules *indexer.IgnoreRules, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:     fsw,
		indexer:     ix,
		root:        root,
		rules:       rules,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start registers all directories under root and begins the event
// loop in a goroutine. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// fsnotify has no recursive mode, so every directory is added
	// individually. New directories are picked up from create events.
	count := 0
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Unreadable subtree, keep going
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && w.rules.SkipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Get(logging.CategoryWatch).Warn("Failed to watch %s: %v", path, err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	logging.Watch("Watching %d directories under %s (debounce %v)", count, w.root, w.debounceDur)

	go w.run(ctx)
	return nil
}

// Stop shuts down the event loop and waits for it to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
	}
	logging.Watch("Watcher stopped")
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("Context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				logging.Watch("Event channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				logging.Watch("Error channel closed")
				return
			}
			logging.Get(logging.CategoryWatch).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents(ctx)
		}
	}
}

// handleEvent records a filesystem event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)

	// A newly created directory must be added to the watch set or
	// changes inside it would be invisible.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.rules.SkipDir(name) {
				if err := w.watcher.Add(event.Name); err == nil {
					logging.WatchDebug("Now watching new directory %s", event.Name)
				}
			}
			return
		}
	}

	if w.rules.SkipFile(name) {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // Chmod etc.
	}

	logging.WatchDebug("%s event for %s", eventType, event.Name)

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType

	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}

	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebouncedEvents handles events that settled past the window.
func (w *Watcher) processDebouncedEvents(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var toProcess []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toProcess = append(toProcess, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toProcess {
		w.syncPath(ctx, path)
	}
}

// syncPath reconciles one settled path with the index.
func (w *Watcher) syncPath(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Watch("File removed, dropping from index: %s", path)
		if err := w.indexer.RemoveFile(path); err != nil {
			logging.Get(logging.CategoryWatch).Error("Failed to remove %s: %v", path, err)
			w.bumpErrors()
			return
		}
		w.mu.Lock()
		w.stats.Removed++
		w.mu.Unlock()
		return
	}
	if err != nil || info.IsDir() {
		return
	}

	logging.Watch("Re-indexing changed file: %s", path)
	if err := w.indexer.IndexFile(ctx, path); err != nil {
		logging.Get(logging.CategoryWatch).Error("Failed to re-index %s: %v", path, err)
		w.bumpErrors()
		return
	}
	w.mu.Lock()
	w.stats.Reindexed++
	w.mu.Unlock()
}

func (w *Watcher) bumpErrors() {
	w.mu.Lock()
	w.stats.Errors++
	w.mu.Unlock()
}

// GetStats returns a snapshot of the watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories currently being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
