package fabric

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/evfabric/evfabric/internal/dispatcher"
)

// reloadDebounce coalesces bursts of filesystem events (an editor's
// write-then-rename, a multi-file deploy) into a single reload.
const reloadDebounce = 250 * time.Millisecond

// WatchUnits watches path for filesystem changes and calls InitConnections
// again on every debounced change, launching whatever new units appear.
// It never removes connections spawned by a prior load: spec.md's fabric
// model has no "tear down a channel" operation, so a watched reload is
// additive only, matching InitConnections' own one-shot launch semantics.
func WatchUnits(ctx context.Context, path string, disp dispatcher.Producer, opts Options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		reload := func() {
			if err := InitConnections(ctx, path, disp, opts); err != nil && opts.Log != nil {
				opts.Log.Errorf("reload %s: %v", path, err)
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, reload)
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				if opts.Log != nil {
					opts.Log.Warnf("watch %s: %v", path, werr)
				}
			}
		}
	}()

	return nil
}
