// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a profile file when it changes on disk and delivers
// each reloaded Profile on Changes() (reload failures on Errors()): an
// fsnotify.Watcher plus a single event-loop goroutine feeding those
// channels. Applying a reloaded profile is left to the receiver; a
// manager's options are fixed when manager.New runs.
type Watcher struct {
	path    string
	fswatch *fsnotify.Watcher
	changes chan Profile
	errors  chan error
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher starts watching the directory containing path (fsnotify
// watches directories, not bare files, so that it survives editors
// that replace the file via rename-over rather than in-place write).
func NewWatcher(path string) (*Watcher, error) {
	fswatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fswatch.Add(dir); err != nil {
		fswatch.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:    path,
		fswatch: fswatch,
		changes: make(chan Profile, 8),
		errors:  make(chan error, 8),
	}
	return w, nil
}

// Start begins the event loop. The fallbackRoot is passed through to
// Load on every reload, in case the changed file temporarily omits
// root.
func (w *Watcher) Start(ctx context.Context, fallbackRoot string) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx, fallbackRoot)
}

// Changes returns the channel of successfully reloaded profiles.
func (w *Watcher) Changes() <-chan Profile { return w.changes }

// Errors returns the channel of reload failures (e.g. a transient
// parse error while an editor is mid-write).
func (w *Watcher) Errors() <-chan error { return w.errors }

// Stop cancels the event loop, closes the underlying fsnotify watcher,
// and waits for the loop goroutine to exit before closing channels.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	closeErr := w.fswatch.Close()
	w.wg.Wait()
	close(w.changes)
	close(w.errors)
	return closeErr
}

func (w *Watcher) loop(ctx context.Context, fallbackRoot string) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fswatch.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if !(ev.Op&(fsnotify.Write|fsnotify.Create) != 0) {
				continue
			}
			p, err := Load(w.path, fallbackRoot)
			if err != nil {
				select {
				case w.errors <- err:
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case w.changes <- p:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fswatch.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-ctx.Done():
				return
			}
		}
	}
}
