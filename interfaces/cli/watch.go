package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/maze-agent/domain/config"
	"github.com/felixgeelhaar/maze-agent/infrastructure/logging"
	"github.com/felixgeelhaar/maze-agent/infrastructure/world"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 150 * time.Millisecond

// watch runs the simulation, then restarts it from a freshly loaded map
// every time the map file changes. A map that fails to parse is reported
// and the last good map stays in use. It returns when ctx is done.
func (a *App) watch(ctx context.Context, cfg *config.SimulationConfig, opts *runOptions, sess *session, base *world.World) error {
	path, err := filepath.Abs(cfg.Map.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve map path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch map: %w", err)
	}

	var (
		cancel   context.CancelFunc
		done     chan error
		debounce <-chan time.Time
	)
	start := func(w *world.World) {
		var runCtx context.Context
		runCtx, cancel = context.WithCancel(ctx)
		done = make(chan error, 1)
		go func(ch chan<- error) {
			ch <- a.simulate(runCtx, cfg, opts, sess, w)
		}(done)
	}
	stop := func() {
		if cancel == nil {
			return
		}
		cancel()
		if done != nil {
			<-done
		}
		cancel, done = nil, nil
	}
	defer stop()

	start(base.Clone())

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-done:
			// A nil channel blocks, so this fires once per run.
			done = nil
			if err != nil {
				_, _ = fmt.Fprintf(a.stderr, "Error: %v\n", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "\nWatching %s for changes (Ctrl-C to quit)...\n", path)

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().
				Add(logging.Component("watch")).
				Add(logging.ErrorField(err)).
				Msg("map watcher error")

		case <-debounce:
			debounce = nil
			next, err := world.Load(path)
			if err != nil {
				_, _ = fmt.Fprintf(a.stderr, "Map not reloaded: %v\n", err)
				continue
			}
			base = next
			stop()
			logging.Info().
				Add(logging.Component("watch")).
				Add(logging.MapName(base.Name())).
				Msg("map changed, restarting run")
			start(base.Clone())
		}
	}
}
