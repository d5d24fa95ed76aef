package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/recera/drawflow/pkg/graph"
)

const ext = ".json"

// WatchDebounce is how long Watch waits for a burst of writes to settle
const WatchDebounce = 100 * time.Millisecond

// FileStore keeps one <name>.json document per graph in a directory
type FileStore struct {
	dir string
	log *slog.Logger

	// serialises writers so a rename never races a second save
	mu sync.Mutex
}

// NewFileStore creates dir if needed and returns a store over it
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, log: logger.With("component", "store", "dir", dir)}, nil
}

// Dir returns the directory backing the store
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+ext)
}

func (s *FileStore) Load(_ context.Context, name string) (*graph.Drawflow, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	g, err := graph.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", name, err)
	}
	return g, nil
}

// Save writes the document to a temporary file and renames it into place
func (s *FileStore) Save(_ context.Context, name string, g *graph.Drawflow) error {
	if err := ValidName(name); err != nil {
		return err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	s.log.Debug("graph saved", "graph", name, "nodes", g.Len())
	return nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

func (s *FileStore) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	var names []string
	for _, e := range entries {
		if name, ok := s.graphName(e.Name()); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// graphName maps a file name back to the graph it stores
func (s *FileStore) graphName(file string) (string, bool) {
	file = filepath.Base(file)
	if !strings.HasSuffix(file, ext) {
		return "", false
	}
	name := strings.TrimSuffix(file, ext)
	if ValidName(name) != nil {
		return "", false
	}
	return name, true
}

// Watch calls onChange with the name of every graph whose document is
// written or removed, until ctx is cancelled. Bursts of events for the
// same graph are coalesced.
func (s *FileStore) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store: watch: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("store: watch %s: %w", s.dir, err)
	}

	go func() {
		defer watcher.Close()

		debounce := time.NewTimer(WatchDebounce)
		if !debounce.Stop() {
			<-debounce.C
		}
		pending := make(map[string]struct{})

		for {
			select {
			case <-ctx.Done():
				debounce.Stop()
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				name, ok := s.graphName(event.Name)
				if !ok {
					continue
				}
				pending[name] = struct{}{}
				debounce.Reset(WatchDebounce)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("watcher error", "error", err)

			case <-debounce.C:
				names := make([]string, 0, len(pending))
				for name := range pending {
					names = append(names, name)
				}
				clear(pending)
				sort.Strings(names)
				for _, name := range names {
					s.log.Debug("graph changed on disk", "graph", name)
					onChange(name)
				}
			}
		}
	}()
	return nil
}
