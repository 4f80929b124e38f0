package source

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reports writes to a set of files, debounced per path.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	onChange func(string)
	debounce time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(onChange func(string), logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}),
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}

	go w.watch()
	return w, nil
}

// Add starts watching path. Editors replace files on save, so the parent
// directory is watched and events are filtered by name.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.files[absPath]; exists {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	w.files[absPath] = struct{}{}
	return nil
}

func (w *Watcher) Remove(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.files[absPath]; !exists {
		return nil
	}
	delete(w.files, absPath)

	for f := range w.files {
		if filepath.Dir(f) == filepath.Dir(absPath) {
			return nil
		}
	}
	return w.watcher.Remove(filepath.Dir(absPath))
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(filepath.Clean(event.Name))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "err", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, watching := w.files[name]; !watching {
		return
	}
	if timer, exists := w.pending[name]; exists {
		timer.Stop()
	}

	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, name)
		w.mu.Unlock()

		w.logger.Debug("source file changed", "path", name)
		if w.onChange != nil {
			w.onChange(name)
		}
	})
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, t := range w.pending {
			t.Stop()
		}
		w.pending = map[string]*time.Timer{}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}

// fileWatch is embedded by file-backed adapters to satisfy Watchable.
type fileWatch struct {
	mu      sync.Mutex
	watcher *Watcher
	events  chan FileChangeEvent
}

func (f *fileWatch) watchPath(path string, logger *log.Logger) (<-chan FileChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher != nil {
		return f.events, nil
	}
	if path == "" {
		return nil, ErrNoPath
	}

	events := make(chan FileChangeEvent, 10)
	w, err := NewWatcher(func(p string) {
		select {
		case events <- FileChangeEvent{Path: p, Timestamp: time.Now()}:
		default:
			// Channel full, drop event
		}
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	f.watcher = w
	f.events = events
	return events, nil
}

func (f *fileWatch) StopWatching() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher == nil {
		return nil
	}
	err := f.watcher.Close()
	f.watcher = nil
	return err
}
