// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package watch triggers reconciliation when the stack documents
// change.
//
// # Overview
//
// Two triggers feed one loop: filesystem events on the registry and
// desired-state documents, and a periodic interval that catches drift
// the filesystem cannot see (containers stopped by hand, runtime
// restarts). Filesystem events are debounced so an editor's
// write-rename dance produces one reconcile, not five.
//
// The watcher watches parent directories rather than the files
// themselves: most editors replace files by rename, which would
// silently detach a direct file watch.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last
// filesystem event before triggering.
const DefaultDebounce = 500 * time.Millisecond

// DefaultInterval is the periodic reconcile fallback.
const DefaultInterval = 5 * time.Minute

// Trigger is invoked for each reconcile. The reason is "change" for
// filesystem-driven triggers and "interval" for periodic ones.
type Trigger func(ctx context.Context, reason string) error

// Options tunes watcher behavior.
type Options struct {
	// Debounce is the quiet period after the last event. Zero uses
	// DefaultDebounce.
	Debounce time.Duration

	// Interval is the periodic trigger period. Zero uses
	// DefaultInterval; negative disables periodic triggering.
	Interval time.Duration

	// OnError receives trigger errors. Nil means errors are dropped
	// (the next trigger still fires).
	OnError func(error)
}

// Watcher drives reconciliation from document changes and time.
type Watcher struct {
	paths   map[string]bool
	dirs    []string
	trigger Trigger
	opts    Options
}

// New returns a Watcher over the given document paths.
func New(paths []string, trigger Trigger, opts Options) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watch: no paths given")
	}
	if trigger == nil {
		return nil, errors.New("watch: nil trigger")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}

	w := &Watcher{
		paths:   make(map[string]bool, len(paths)),
		trigger: trigger,
		opts:    opts,
	}
	dirSet := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolving %s: %w", p, err)
		}
		w.paths[abs] = true
		dirSet[filepath.Dir(abs)] = true
	}
	for d := range dirSet {
		w.dirs = append(w.dirs, d)
	}
	sort.Strings(w.dirs)
	return w, nil
}

// Run blocks, triggering reconciles until ctx is cancelled.
//
// # Description
//
// An immediate trigger fires on startup so watch mode always converges
// the stack first, then waits on filesystem events and the interval
// ticker. Returns nil on cancellation and an error only when the
// filesystem watcher itself breaks.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer fw.Close()

	for _, d := range w.dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch: watching %s: %w", d, err)
		}
	}

	w.fire(ctx, "startup")

	var ticker *time.Ticker
	var tick <-chan time.Time
	if w.opts.Interval > 0 {
		ticker = time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// debounce stays nil until the first relevant event.
	var debounce *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if !w.relevant(ev) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
				pending = debounce.C
			} else {
				debounce.Reset(w.opts.Debounce)
			}

		case <-pending:
			debounce = nil
			pending = nil
			w.fire(ctx, "change")

		case <-tick:
			w.fire(ctx, "interval")

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if w.opts.OnError != nil {
				w.opts.OnError(err)
			}
		}
	}
}

// relevant reports whether an event touches one of the watched
// documents.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	return w.paths[filepath.Clean(ev.Name)]
}

func (w *Watcher) fire(ctx context.Context, reason string) {
	if err := w.trigger(ctx, reason); err != nil && w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}
