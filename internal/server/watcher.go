package server

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
)

const defaultDebounce = 500 * time.Millisecond

// ReloadFunc applies freshly loaded settings.
type ReloadFunc func(ctx context.Context, settings *config.Settings) error

// ConfigWatcher reloads settings when the config file changes.
type ConfigWatcher struct {
	configPath string
	reload     ReloadFunc
	load       func(path string) (*config.Settings, error)
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	debounce   time.Duration

	mu       sync.Mutex
	stopOnce sync.Once
	stopChan chan struct{}
	pending  chan struct{}
	done     sync.WaitGroup
}

// NewConfigWatcher creates a watcher for configPath.
func NewConfigWatcher(configPath string, reload ReloadFunc, logger *slog.Logger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to resolve config path").
			WithContext("path", configPath).
			Build()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ConfigWatcher{
		configPath: absPath,
		reload:     reload,
		load:       config.Load,
		watcher:    watcher,
		logger:     logger,
		debounce:   defaultDebounce,
		stopChan:   make(chan struct{}),
		pending:    make(chan struct{}, 1),
	}, nil
}

// Start begins monitoring the config file.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	// Watch the directory containing the config file; editors replace files on save.
	dir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(dir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch config directory").
			WithContext("dir", dir).
			Build()
	}

	cw.logger.InfoContext(ctx, "Starting configuration watcher", logfields.Path(cw.configPath))
	cw.done.Add(2)
	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop ends both loops and closes the fsnotify watcher.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.stopChan)
		err = cw.watcher.Close()
		cw.done.Wait()
	})
	return err
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	defer cw.done.Done()
	name := filepath.Base(cw.configPath)
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				cw.logger.DebugContext(ctx, "Config file change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				cw.trigger()
			case event.Has(fsnotify.Remove):
				cw.logger.WarnContext(ctx, "Config file removed", logfields.Path(event.Name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.ErrorContext(ctx, "Config watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop collapses bursts of changes into one reload per debounce window.
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	defer cw.done.Done()
	timer := time.NewTimer(cw.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case <-cw.pending:
			timer.Reset(cw.debounce)
		case <-timer.C:
			if err := cw.performReload(ctx); err != nil {
				cw.logger.ErrorContext(ctx, "Failed to reload configuration", logfields.Error(err))
			}
		}
	}
}

func (cw *ConfigWatcher) trigger() {
	select {
	case cw.pending <- struct{}{}:
	default:
	}
}

func (cw *ConfigWatcher) performReload(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.logger.InfoContext(ctx, "Reloading configuration", logfields.Path(cw.configPath))
	settings, err := cw.load(cw.configPath)
	if err != nil {
		return err
	}
	if err := cw.reload(ctx, settings); err != nil {
		return err
	}
	cw.logger.InfoContext(ctx, "Configuration reloaded")
	return nil
}
