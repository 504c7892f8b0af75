package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/platformbuilds/vigil-core/pkg/logger"
)

// RuleFileWatcher reloads the rule-override YAML whenever it changes on
// disk and pushes the parsed overrides to registered listeners. This is
// how `enabled` and thresholds mutate at runtime without a restart.
type RuleFileWatcher struct {
	path      string
	logger    logger.Logger
	mu        sync.Mutex
	listeners []func([]RuleOverride)
}

func NewRuleFileWatcher(path string, log logger.Logger) *RuleFileWatcher {
	return &RuleFileWatcher{path: path, logger: log}
}

// OnReload registers a listener invoked with the full override set after
// each successful reload.
func (w *RuleFileWatcher) OnReload(fn func([]RuleOverride)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Start watches the file until ctx is canceled. The initial load happens
// before watching so listeners see current state immediately.
func (w *RuleFileWatcher) Start(ctx context.Context) error {
	if w.path == "" {
		return nil
	}

	w.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch rules file: %w", err)
	}

	w.logger.Info("Rule file watcher started", "path", w.path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Info("Rules file changed, reloading", "file", event.Name)
				w.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Rules file watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *RuleFileWatcher) reload() {
	overrides, err := LoadRuleOverrides(w.path)
	if err != nil {
		w.logger.Error("Failed to reload rules file", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	listeners := make([]func([]RuleOverride), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(overrides)
	}
	w.logger.Info("Rule overrides applied", "count", len(overrides))
}
