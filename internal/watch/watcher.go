package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goliatone/go-pagebuilder/internal/cache"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const defaultDebounce = 100 * time.Millisecond

// PathMapper maps an object name relative to the root back to its template path.
type PathMapper interface {
	TemplatePath(objectName string) (string, bool)
}

// Config configures a Watcher.
type Config struct {
	Root     string
	Mapper   PathMapper
	Cache    interfaces.CacheProvider
	Logger   interfaces.Logger
	Debounce time.Duration
	// OnChange runs once per debounced template change.
	OnChange func(templatePath string)
}

// Watcher invalidates cached renders when template files change on disk.
type Watcher struct {
	root     string
	mapper   PathMapper
	cache    interfaces.CacheProvider
	logger   interfaces.Logger
	debounce time.Duration
	onChange func(string)
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher. Start begins delivering events.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		root:     root,
		mapper:   cfg.Mapper,
		cache:    cfg.Cache,
		logger:   logger,
		debounce: debounce,
		onChange: cfg.OnChange,
		fsw:      fsw,
		pending:  map[string]time.Time{},
		done:     make(chan struct{}),
	}, nil
}

// Start watches every directory below the root and processes events until
// ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return err
	}
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.wg.Add(2)
	go w.eventLoop(ctx)
	go w.debounceLoop(ctx)
	w.logger.Info("watch.start", "root", w.root)
	return nil
}

// Close stops the watcher and waits for its goroutines.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch.error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("watch.add.failed", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	templatePath, ok := w.mapper.TemplatePath(filepath.ToSlash(rel))
	if !ok {
		return
	}
	w.mu.Lock()
	w.pending[templatePath] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	var ready []string
	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		if err := cache.InvalidatePage(ctx, w.cache, path); err != nil {
			w.logger.Warn("watch.invalidate.failed", "template_path", path, "error", err)
		}
		w.logger.Debug("watch.template.changed", "template_path", path)
		if w.onChange != nil {
			w.onChange(path)
		}
	}
}
