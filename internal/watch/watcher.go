// Package watch re-imports a tree snapshot file into the store whenever it
// changes on disk.
//
// This is the bridge for people who maintain the family tree as a YAML file
// in an editor: run `arbor watch family.yaml` next to `arbor serve` and
// every save of the file replaces the stored tree. The parent directory is
// watched rather than the file itself because editors commonly replace
// files by rename, which drops a direct watch.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arborhq/arbor/internal/editor"
	"github.com/arborhq/arbor/internal/tree"
)

// Config holds watcher configuration.
type Config struct {
	// Debounce is how long the file must stay quiet before a re-import.
	// Editors often emit several events per save; this batches them.
	Debounce time.Duration

	// Token is the admin token used for the import operation.
	Token string

	// Logger for watcher activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 250 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Watcher monitors one snapshot file and replays it into the editor.
type Watcher struct {
	editor *editor.Editor
	path   string
	config *Config

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending *time.Timer

	wg sync.WaitGroup
}

// New creates a watcher for the snapshot file at path.
func New(ed *editor.Editor, path string, config *Config) (*Watcher, error) {
	if ed == nil {
		return nil, fmt.Errorf("editor cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}
	if config.Debounce <= 0 {
		config.Debounce = 250 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	return &Watcher{
		editor:  ed,
		path:    abs,
		config:  config,
		watcher: fw,
	}, nil
}

// Run imports the snapshot once, then watches for changes until ctx is
// cancelled. A pending debounced import is dropped on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.importSnapshot(ctx); err != nil {
		return fmt.Errorf("initial import failed: %w", err)
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.config.Logger.Printf("Watching %s", w.path)

	w.wg.Add(1)
	go w.loop(ctx)

	<-ctx.Done()

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.config.Logger.Printf("Error closing watcher: %v", err)
	}
	w.wg.Wait()
	return nil
}

// loop consumes filesystem events and schedules debounced imports.
func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.config.Logger.Printf("Snapshot changed (%s)", event.Op)
			w.scheduleImport(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// scheduleImport arms (or re-arms) the debounce timer.
func (w *Watcher) scheduleImport(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.config.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.importSnapshot(ctx); err != nil {
			w.config.Logger.Printf("Import failed: %v", err)
		}
	})
}

// importSnapshot reads the snapshot file and replaces the stored tree.
func (w *Watcher) importSnapshot(ctx context.Context) error {
	root, err := tree.ReadSnapshot(w.path)
	if err != nil {
		return err
	}
	if err := w.editor.Replace(ctx, w.config.Token, root); err != nil {
		return err
	}
	w.config.Logger.Printf("Imported %d nodes from %s", tree.Count(root), filepath.Base(w.path))
	return nil
}
