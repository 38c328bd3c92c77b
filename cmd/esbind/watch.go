package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/evanw/esbind/internal/bundler"
	"github.com/evanw/esbind/internal/cache"
	"github.com/evanw/esbind/internal/exitcode"
)

// Editors often write a file in several steps, so events that arrive this
// close together trigger a single rebuild
const watchDebounce = 50 * time.Millisecond

const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

type watchState struct {
	watcher *fsnotify.Watcher
	caches  *cache.CacheSet
	dirs    map[string]bool
	stderr  io.Writer
}

// Binds once and then again after every change to a directory that holds one
// of the files. Parses of unchanged files are reused from the cache.
func watchAndBind(ctx context.Context, opts bindOptions, stdout io.Writer, stderr io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start file watcher: %w", err)
	}
	defer watcher.Close()

	w := watchState{
		watcher: watcher,
		caches:  cache.MakeCacheSet(),
		dirs:    make(map[string]bool),
		stderr:  stderr,
	}

	// Directories named on the command line are watched too so that new files
	// in them are picked up
	for _, entry := range opts.entryPoints {
		if absPath, err := filepath.Abs(entry); err == nil {
			w.watchDir(filepath.Dir(absPath))
		}
	}

	w.rebuild(ctx, opts, stdout)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "[watch] error: %s\n", err)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&watchedOps == 0 {
				continue
			}
			w.caches.FSCache.Invalidate(event.Name)

			if !w.drainEvents(ctx) {
				return nil
			}
			w.rebuild(ctx, opts, stdout)
		}
	}
}

// Collects events until there is a quiet period. Returns false if the watch
// should stop.
func (w *watchState) drainEvents(ctx context.Context) bool {
	timer := time.NewTimer(watchDebounce)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false

		case <-timer.C:
			return true

		case event, ok := <-w.watcher.Events:
			if !ok {
				return false
			}
			if event.Op&watchedOps != 0 {
				w.caches.FSCache.Invalidate(event.Name)
			}
		}
	}
}

func (w *watchState) rebuild(ctx context.Context, opts bindOptions, stdout io.Writer) {
	hitsBefore := w.caches.JSCache.Hits()
	start := time.Now()

	bundle, err := runBind(ctx, opts, w.caches, stdout)
	if err != nil && !exitcode.IsReported(err) {
		fmt.Fprintf(w.stderr, "[watch] error: %s\n", err)
	}
	if bundle == nil {
		return
	}

	w.watchFiles(bundle)
	fmt.Fprintf(w.stderr, "[watch] bound %d files in %s (%d parses reused)\n",
		len(bundle.Files()), time.Since(start).Round(time.Millisecond), w.caches.JSCache.Hits()-hitsBefore)
}

func (w *watchState) watchFiles(bundle *bundler.Bundle) {
	for _, file := range bundle.Files() {
		w.watchDir(filepath.Dir(file.Source.KeyPath))
	}
}

func (w *watchState) watchDir(dir string) {
	if w.dirs[dir] {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		fmt.Fprintf(w.stderr, "[watch] cannot watch %s: %s\n", dir, err)
		return
	}
	w.dirs[dir] = true
}
