package server

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bazhenov/tindex/internal/debug"
)

// watchIndex flushes the cache whenever a posting list file in dir changes.
// Events are debounced: a rebuild touching many .idx files costs one flush.
func watchIndex(ctx context.Context, dir string, cache *queryCache, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(event.Name, ".idx") {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					fire = timer.C
				} else {
					timer.Reset(debounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				debug.Logf("server: watcher: %v", err)
			case <-fire:
				timer, fire = nil, nil
				cache.flush()
				debug.Logf("server: index changed, cache flushed")
			}
		}
	}()
	return nil
}
