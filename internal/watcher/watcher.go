// Package watcher imports wishlist files from a directory as they change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ramonehamilton/wishlist-companion/internal/library"
)

// Extension is the file extension of watched wishlists.
const Extension = ".txt"

// Importer receives the content of changed files.
type Importer interface {
	Import(ctx context.Context, source, text string) (*library.ImportResult, error)
}

// Config holds configuration for a Watcher.
type Config struct {
	// Dir is the directory holding *.txt wishlists. Subdirectories are not
	// watched.
	Dir string

	// Interval is the polling period, and the backup rescan period when
	// UseFsnotify is set.
	// Default: 2 seconds
	Interval time.Duration

	// UseFsnotify reacts to filesystem events instead of waiting for the
	// next poll.
	UseFsnotify bool

	Logger *slog.Logger
}

// Stats counts watcher activity.
type Stats struct {
	Scans    int       `json:"scans"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	Errors   int       `json:"errors"`
	LastPath string    `json:"last_path,omitempty"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

type fileState struct {
	size    int64
	modTime time.Time
}

// Watcher feeds changed wishlist files to an Importer.
type Watcher struct {
	dir         string
	interval    time.Duration
	useFsnotify bool
	importer    Importer
	logger      *slog.Logger

	mu    sync.Mutex
	seen  map[string]fileState
	stats Stats

	runningMu sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	fsw       *fsnotify.Watcher
}

// New creates a watcher. The directory must exist.
func New(cfg Config, importer Importer) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory cannot be empty")
	}
	if importer == nil {
		return nil, fmt.Errorf("importer cannot be nil")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cfg.Dir)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Watcher{
		dir:         cfg.Dir,
		interval:    cfg.Interval,
		useFsnotify: cfg.UseFsnotify,
		importer:    importer,
		logger:      cfg.Logger.With("component", "watcher", "dir", cfg.Dir),
		seen:        make(map[string]fileState),
	}, nil
}

// Start imports every wishlist currently in the directory and then keeps
// watching in the background until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()
	if w.running {
		return nil
	}

	var fsw *fsnotify.Watcher
	if w.useFsnotify {
		var err error
		fsw, err = fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create file watcher: %w", err)
		}
		if err := fsw.Add(w.dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("watch %s: %w", w.dir, err)
		}
	}

	if err := w.Scan(ctx); err != nil {
		if fsw != nil {
			_ = fsw.Close()
		}
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.fsw = fsw
	w.running = true

	go w.run(runCtx, fsw, w.done)
	return nil
}

// Stop stops watching and blocks until the background goroutine exits.
func (w *Watcher) Stop() {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()
	if !w.running {
		return
	}
	w.running = false

	w.cancel()
	<-w.done
	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("failed to close file watcher", "error", err)
		}
		w.fsw = nil
	}
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()
	return w.running
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var (
		fsEvents <-chan fsnotify.Event
		fsErrors <-chan error
	)
	if fsw != nil {
		fsEvents = fsw.Events
		fsErrors = fsw.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Warn("scan failed", "error", err)
			}
		case event, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				if isWishlist(event.Name) {
					w.importFile(ctx, event.Name)
				}
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Scan imports every wishlist whose size or modification time changed since
// it was last seen.
func (w *Watcher) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}

	w.mu.Lock()
	w.stats.Scans++
	w.mu.Unlock()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !isWishlist(entry.Name()) {
			continue
		}
		w.importFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.recordError(path, err)
		}
		return
	}
	state := fileState{size: info.Size(), modTime: info.ModTime()}

	w.mu.Lock()
	prev, ok := w.seen[path]
	w.mu.Unlock()
	if ok && prev == state {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.recordError(path, err)
		return
	}

	res, err := w.importer.Import(ctx, path, string(data))
	if err != nil {
		w.recordError(path, err)
		return
	}

	w.mu.Lock()
	w.seen[path] = state
	w.stats.LastPath = path
	w.stats.LastSeen = time.Now()
	if res != nil && res.Unchanged {
		w.stats.Skipped++
	} else {
		w.stats.Imported++
	}
	w.mu.Unlock()

	w.logger.Debug("file imported", "path", path, "unchanged", res != nil && res.Unchanged)
}

func (w *Watcher) recordError(path string, err error) {
	w.mu.Lock()
	w.stats.Errors++
	w.mu.Unlock()
	w.logger.Warn("failed to import file", "path", path, "error", err)
}

func isWishlist(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}
