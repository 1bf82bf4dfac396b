// Package watcher notifies when the rule store file changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/rulebook/internal/log"
)

// DefaultDebounce coalesces bursts of writes from a single save.
const DefaultDebounce = 300 * time.Millisecond

// Config holds watcher configuration options.
type Config struct {
	// Path is the store file. Its directory is watched so atomic
	// rename-over writes and SQLite WAL files are seen.
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig returns the default configuration for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, DebounceDur: DefaultDebounce}
}

// Watcher sends one signal per burst of changes to the store file.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	names     map[string]bool
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	base := filepath.Base(cfg.Path)
	debounce := cfg.DebounceDur
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsWatcher: fsw,
		path:      cfg.Path,
		names:     map[string]bool{base: true, base + "-wal": true},
		debounce:  debounce,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the store's directory and returns the change channel.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "Watching store", "path", w.path)

	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	// A nil channel blocks forever, so the timer case is inert until armed.
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			// Drop the signal if the previous one is still unread.
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err, "path", w.path)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return w.names[filepath.Base(event.Name)]
}
