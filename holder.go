package cobble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/buildbuildio/cobble/config"
	"github.com/buildbuildio/cobble/source"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

// Holder provides thread-safe access to the resolved configuration with hot reload support.
type Holder struct {
	mu       sync.RWMutex
	set      *config.ConfigSet
	onChange []func(*config.ConfigSet)

	reader *Reader
	paths  []string

	reloadMu      sync.Mutex
	reloadTimeout time.Duration

	// watcher is guarded by mu
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder resolves paths once and keeps the result. The gateway refuses to
// start when the initial resolution fails.
func NewHolder(ctx context.Context, reader *Reader, paths ...string) (*Holder, error) {
	set, err := reader.ReadAll(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &Holder{
		set:    set,
		reader: reader,
		paths:  paths,
		stopCh: make(chan struct{}),
	}, nil
}

// WithReloadTimeout bounds every Reload, including the ones triggered by
// file changes. Zero means no bound besides the caller's context.
func (h *Holder) WithReloadTimeout(d time.Duration) *Holder {
	h.reloadTimeout = d
	return h
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *config.ConfigSet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.set
}

// Reload resolves the documents again.
// Returns error if resolution fails (keeps old set).
func (h *Holder) Reload(ctx context.Context) error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	if h.reloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.reloadTimeout)
		defer cancel()
	}

	logger := h.reader.logger
	logger.Info().Strs("files", h.paths).Msg("reloading configuration")

	newSet, err := h.reader.ReadAll(ctx, h.paths...)
	h.reader.metrics.ObserveReload(err, time.Now())
	if err != nil {
		logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldSet := h.set
	h.set = newSet
	listeners := append([]func(*config.ConfigSet){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(oldSet, newSet)

	for _, fn := range listeners {
		fn(newSet)
	}

	logger.Info().Msg("configuration reloaded successfully")
	return nil
}

// OnChange registers a callback to be called when config changes.
func (h *Holder) OnChange(fn func(*config.ConfigSet)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFiles starts watching the local documents for changes, remote ones
// are skipped. Changes trigger automatic reload with ctx.
func (h *Holder) WatchFiles(ctx context.Context) error {
	files := make(map[string]struct{})
	for _, p := range h.paths {
		ref := source.Classify(p)
		if ref.IsRemote() {
			continue
		}

		abs, err := filepath.Abs(ref.String())
		if err != nil {
			return fmt.Errorf("absolute path: %w", err)
		}
		files[abs] = struct{}{}
	}

	if len(files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch directories, editors often save by replacing the file
	dirs := lo.Uniq(lo.Map(lo.Keys(files), func(f string, _ int) string { return filepath.Dir(f) }))
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch directory: %w", err)
		}
	}

	h.mu.Lock()
	select {
	case <-h.stopCh:
		h.mu.Unlock()
		watcher.Close()
		return nil
	default:
	}
	if h.watcher != nil {
		h.mu.Unlock()
		watcher.Close()
		return errors.New("already watching")
	}
	h.watcher = watcher
	h.mu.Unlock()

	go h.watchLoop(ctx, watcher, files)

	h.reader.logger.Info().Strs("dirs", dirs).Msg("watching config files for changes")
	return nil
}

// Stop stops watching for file changes.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		close(h.stopCh)
		watcher := h.watcher
		h.mu.Unlock()

		if watcher != nil {
			watcher.Close()
		}
	})
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, files map[string]struct{}) {
	logger := h.reader.logger

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if _, ok := files[filepath.Clean(event.Name)]; !ok {
				continue
			}

			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("config file changed")

				if err := h.Reload(ctx); err != nil {
					logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			return

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(old, new *config.ConfigSet) {
	logger := h.reader.logger

	if oldAddr, newAddr := old.Config.Server.Address(), new.Config.Server.Address(); oldAddr != newAddr {
		logger.Info().
			Str("old", oldAddr).
			Str("new", newAddr).
			Msg("server address changed, restart required")
	}

	if len(old.Config.Types) != len(new.Config.Types) {
		logger.Info().
			Int("old", len(old.Config.Types)).
			Int("new", len(new.Config.Types)).
			Msg("types count changed")
	}

	if len(old.Extensions.Descriptors) != len(new.Extensions.Descriptors) {
		logger.Info().
			Int("old", len(old.Extensions.Descriptors)).
			Int("new", len(new.Extensions.Descriptors)).
			Msg("descriptors count changed")
	}
}
