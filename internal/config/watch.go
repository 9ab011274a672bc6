package config

import (
	"context"
	"os"
	"time"
)

// stamp identifies one version of a file on disk.
type stamp struct {
	mod  time.Time
	size int64
}

func statStamp(path string) (stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}, err
	}
	return stamp{mod: info.ModTime(), size: info.Size()}, nil
}

// kitchenWatcher polls the catalog file and hands every new version to onUpdate.
type kitchenWatcher struct {
	path     string
	last     stamp
	onUpdate func(*KitchensConfig)
	onError  func(error)
}

// poll reloads the catalog when the file changed since the last good load.
// A broken file keeps the previous catalog and is retried on the next change.
func (w *kitchenWatcher) poll() {
	cur, err := statStamp(w.path)
	if err != nil || cur == w.last {
		return
	}
	w.last = cur

	cfg, err := LoadKitchensConfig(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
}

// WatchKitchens loads the kitchen catalog at path, passes it to onUpdate and
// keeps polling the file every interval until ctx is done. The initial load
// error is returned; later reload errors go to onError.
func WatchKitchens(ctx context.Context, path string, interval time.Duration, onUpdate func(*KitchensConfig), onError func(error)) error {
	if path == "" {
		path = "configs/kitchens.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	first, err := statStamp(path)
	if err != nil {
		return err
	}
	cfg, err := LoadKitchensConfig(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	w := &kitchenWatcher{path: path, last: first, onUpdate: onUpdate, onError: onError}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				w.poll()
			}
		}
	}()
	return nil
}
