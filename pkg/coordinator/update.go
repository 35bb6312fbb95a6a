package coordinator

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/pkg/observe"
	"github.com/maxcodl/WhatSave/pkg/updater"
)

// ReleaseClient asks the release feed for the newest version.
// Implemented by updater.Client.
type ReleaseClient interface {
	LatestRelease(ctx context.Context) (*updater.Release, error)
}

func (c *StatusCoordinator) Updates() *observe.Value[updater.UpdateCheck] {
	return c.updates
}

func (c *StatusCoordinator) Fetches() *observe.Value[updater.DownloadTask] {
	return c.fetches
}

// GetUpdateState publishes exactly one record describing where the
// update flow stands. A running download reports Downloading and
// nothing else, a finished one moves the package into the private
// cache and reports its path, otherwise the release feed is asked.
func (c *StatusCoordinator) GetUpdateState() {
	c.run(func(ctx context.Context) {
		if c.downloads != nil {
			if t, ok := c.downloads.Active(); ok {
				log.Debugf("download already running", "id", t.ID)
				c.updates.Set(updater.UpdateCheck{Downloading: true})
				return
			}
			if t, ok := c.downloads.LastFinished(); ok && t.Status == updater.TaskDone {
				c.updates.Set(updater.UpdateCheck{Current: c.version, Package: c.stash(t.Path)})
				return
			}
		}
		if c.cache != nil {
			if path, ok := c.cache.Newest(); ok {
				c.updates.Set(updater.UpdateCheck{Current: c.version, Package: path})
				return
			}
		}
		c.updates.Set(c.check(ctx))
	})
}

// GetLatestRelease asks the release feed and publishes the answer,
// skipping any download state.
func (c *StatusCoordinator) GetLatestRelease() {
	c.run(func(ctx context.Context) {
		c.updates.Set(c.check(ctx))
	})
}

func (c *StatusCoordinator) check(ctx context.Context) updater.UpdateCheck {
	out := updater.UpdateCheck{Current: c.version, CheckedAt: time.Now()}
	if c.releases == nil {
		out.Err = errors.New("release feed not configured")
		return out
	}
	rel, err := c.releases.LatestRelease(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	out.Latest = rel
	out.Newer = updater.IsNewer(c.version, rel.Version)
	if err := updater.RememberCheck(c.prefs); err != nil {
		log.Debugf("recording check time failed", "err", err)
	}
	return out
}

// stash moves a finished download into the private cache, falling back
// to the raw path when the cache is missing or refuses the file.
func (c *StatusCoordinator) stash(path string) string {
	if c.cache == nil {
		return path
	}
	cached, err := c.cache.Put(path)
	if err != nil {
		log.Warnf("caching package failed", "path", path, "err", err)
		return path
	}
	return cached
}

// DownloadRelease enqueues the release asset. Progress lands on the
// fetch feed through the manager callback; a refused start is reported
// there too as a failed task.
func (c *StatusCoordinator) DownloadRelease(rel *updater.Release) {
	c.run(func(ctx context.Context) {
		if c.downloads == nil {
			c.fetches.Set(updater.DownloadTask{Release: rel, Status: updater.TaskFailed, Err: "download manager not configured"})
			return
		}
		if _, err := c.downloads.Start(ctx, rel); err != nil {
			c.fetches.Set(updater.DownloadTask{Release: rel, Status: updater.TaskFailed, Err: err.Error()})
		}
	})
}
