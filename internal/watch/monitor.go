package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
)

// Filter decides whether a file in the watched directory is of interest.
type Filter func(path string) bool

// Monitor reports files dropped into or rewritten in a single directory.
type Monitor struct {
	dir     string
	filter  Filter
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	lastMod map[string]time.Time
}

// NewMonitor starts watching dir. A nil filter accepts every file.
func NewMonitor(dir string, filter Filter) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "create watcher")
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, eris.Wrapf(err, "watch %s", dir)
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Monitor{
		dir:     dir,
		filter:  filter,
		watcher: watcher,
		lastMod: make(map[string]time.Time),
	}, nil
}

// Dir is the watched directory.
func (m *Monitor) Dir() string { return m.dir }

// Watch calls handler for every create or write that leaves a non-empty
// regular file with a newer modification time than last seen. Handlers run
// on the watch goroutine. Watch returns nil when ctx is cancelled.
func (m *Monitor) Watch(ctx context.Context, handler func(path string)) error {
	defer m.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if m.ready(event.Name) {
				handler(event.Name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return eris.Wrap(err, "watch")
		}
	}
}

func (m *Monitor) ready(path string) bool {
	if !m.filter(filepath.Base(path)) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if last, seen := m.lastMod[path]; seen && !info.ModTime().After(last) {
		return false
	}
	m.lastMod[path] = info.ModTime()
	return true
}
