package sources

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/pkg/log"
)

const (
	defaultDebounce = 500 * time.Millisecond
	defaultPoll     = 30 * time.Second
)

// Watch emits an event when a status folder changes. fsnotify does the
// heavy lifting, a slow poll catches what it misses on odd mounts.
func (s *WASource) Watch(ctx context.Context, opts WatchOpts) (chan WatchEvent, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Poll <= 0 {
		opts.Poll = defaultPoll
	}
	dirs := map[string]string{}
	for _, c := range s.pickClients(opts.Clients) {
		if d := c.StatusDir(s.opts.BaseDir); d != "" {
			dirs[d] = c.Name
		}
	}
	if len(dirs) == 0 {
		return nil, errors.New("no status folders to watch")
	}

	w, err := fsnotify.NewWatcher()
	useFs := err == nil
	if useFs {
		for d := range dirs {
			if err := w.Add(d); err != nil {
				log.Warnf("watch add failed", "dir", d, "err", err)
			}
		}
	} else {
		log.Warnf("fsnotify init failed, polling only", "err", err)
	}

	out := make(chan WatchEvent, 16)
	go s.watchLoop(ctx, w, useFs, dirs, opts, out)
	return out, nil
}

type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (d *debouncer) trigger(wait time.Duration, fire func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(wait, fire)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (s *WASource) watchLoop(ctx context.Context, w *fsnotify.Watcher, useFs bool, dirs map[string]string, opts WatchOpts, out chan WatchEvent) {
	defer close(out)
	if useFs {
		defer w.Close()
	}

	// the debounce timer fires on its own goroutine, so it feeds an
	// inner channel and only this loop touches out.
	fired := make(chan WatchEvent, 16)
	var deb debouncer
	defer deb.stop()
	emit := func(ev WatchEvent) {
		deb.trigger(opts.Debounce, func() {
			select {
			case fired <- ev:
			default:
			}
		})
	}

	var events chan fsnotify.Event
	var werrs chan error
	if useFs {
		events = w.Events
		werrs = w.Errors
	}
	seen := map[string]time.Time{}
	for d := range dirs {
		seen[d] = latestMod(d)
	}
	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-fired:
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			client, ok := dirs[filepath.Dir(ev.Name)]
			if !ok {
				continue
			}
			emit(WatchEvent{Client: client, Path: ev.Name, At: time.Now()})
		case err, ok := <-werrs:
			if !ok {
				return
			}
			log.Warnf("watcher error", "err", err)
		case <-ticker.C:
			for dir, client := range dirs {
				if latest := latestMod(dir); latest.After(seen[dir]) {
					seen[dir] = latest
					emit(WatchEvent{Client: client, Path: dir, At: latest})
				}
			}
		}
	}
}

func latestMod(dir string) time.Time {
	var latest time.Time
	ents, err := os.ReadDir(dir)
	if err != nil {
		return latest
	}
	for _, e := range ents {
		if fi, err := e.Info(); err == nil && fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}
	return latest
}
