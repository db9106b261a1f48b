package guard

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/saxil/mareen/pkg/log"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reverifies the identity file and reloads the guard config when
// either changes on disk. Directories are watched so that editors which
// replace files by rename are noticed too.
type Watcher struct {
	guard      *Guard
	configPath string
	debounce   time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

func NewWatcher(g *Guard, configPath string) *Watcher {
	return &Watcher{
		guard:      g,
		configPath: configPath,
		debounce:   defaultDebounce,
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "guard_watcher").Logger()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	identity := filepath.Clean(w.guard.identityPath)
	config := ""
	if w.configPath != "" {
		config = filepath.Clean(w.configPath)
	}

	dirs := map[string]struct{}{filepath.Dir(identity): {}}
	if config != "" {
		dirs[filepath.Dir(config)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	logger.Info().Str("identity", identity).Msg("watching identity file")

	var (
		timerMu sync.Mutex
		timers  = map[string]*time.Timer{}
	)
	schedule := func(name string, fn func()) {
		timerMu.Lock()
		defer timerMu.Unlock()
		if t, ok := timers[name]; ok {
			t.Stop()
		}
		timers[name] = time.AfterFunc(w.debounce, fn)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			switch filepath.Clean(event.Name) {
			case identity:
				schedule(identity, func() {
					if !w.guard.VerifyIntegrity(ctx) {
						logger.Warn().Msg("identity changed on disk, system prompt updated")
					}
				})
			case config:
				schedule(config, func() {
					cfg, err := LoadConfig(config)
					if err != nil {
						logger.Error().Err(err).Msg("failed to reload guard config")
						return
					}
					w.guard.Reload(ctx, cfg)
				})
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("guard watch error")
		}
	}
}

func (w *Watcher) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}
