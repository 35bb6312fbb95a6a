// Package coordinator owns the observable state the frontends watch. Every
// operation runs in the background and publishes what it produced into a
// feed; callers subscribe to feeds instead of waiting on return values.
package coordinator

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/countries"
	"github.com/maxcodl/WhatSave/pkg/kv"
	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/pkg/mediastore"
	"github.com/maxcodl/WhatSave/pkg/observe"
	"github.com/maxcodl/WhatSave/pkg/storage"
	"github.com/maxcodl/WhatSave/pkg/updater"
	"github.com/maxcodl/WhatSave/pkg/wa"
	"github.com/maxcodl/WhatSave/sources"
)

// Repository is the status side the coordinator drives. Implemented by
// repository.StatusRepository.
type Repository interface {
	Clients() []wa.Client
	Statuses(ctx context.Context, kind commons.MediaKind, opts sources.ScanOpts) ([]commons.StatusItem, error)
	SavedStatuses(ctx context.Context, kind commons.MediaKind) ([]commons.StatusItem, error)
	SaveStatus(ctx context.Context, item *commons.StatusItem, name string) (commons.StatusItem, error)
	SaveStatuses(ctx context.Context, items []commons.StatusItem) (map[string]string, error)
	DeleteStatus(ctx context.Context, item *commons.StatusItem) (bool, error)
	DeleteStatuses(ctx context.Context, kind commons.MediaKind, names []string) (int, error)
	DeleteRequestFor(kind commons.MediaKind, names []string) (*mediastore.DeleteRequest, error)
	Watch(ctx context.Context, opts sources.WatchOpts) (chan sources.WatchEvent, error)
	AllCountries() ([]countries.Country, error)
	DefaultCountry() (countries.Country, error)
	SetDefaultCountry(c countries.Country) error
}

type Opts struct {
	Repo      Repository
	Releases  ReleaseClient
	Downloads *updater.Manager
	Cache     *updater.Cache
	Prefs     kv.KV
	BaseDir   string
	Version   string
	VolumesFn func() ([]storage.Volume, error)
}

func (o *Opts) sanitize() error {
	if o.Repo == nil {
		return errors.New("repository is required")
	}
	if o.Prefs == nil {
		o.Prefs = kv.GetInMemoryKv()
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.VolumesFn == nil {
		base := o.BaseDir
		o.VolumesFn = func() ([]storage.Volume, error) {
			return storage.Volumes(base)
		}
	}
	return nil
}

// StatusCoordinator fans collaborator results out to observable feeds.
// The per-kind feeds live in registries guarded by l; feeds are created
// on first Get and stay alive until Close.
type StatusCoordinator struct {
	repo      Repository
	releases  ReleaseClient
	downloads *updater.Manager
	cache     *updater.Cache
	prefs     kv.KV
	version   string
	volumesFn func() ([]storage.Volume, error)

	ctx    context.Context
	cancel context.CancelFunc
	swg    sync.WaitGroup

	l        *sync.Mutex
	statuses map[commons.MediaKind]*observe.Value[[]commons.StatusItem]
	saved    map[commons.MediaKind]*observe.Value[[]commons.StatusItem]

	clients  *observe.Value[[]wa.Client]
	volumes  *observe.Value[[]storage.Volume]
	catalog  *observe.Value[[]countries.Country]
	selected *observe.Value[countries.Country]
	saves    *observe.Value[commons.SaveOutcome]
	deletes  *observe.Value[commons.DeleteOutcome]
	requests *observe.Value[*mediastore.DeleteRequest]
	updates  *observe.Value[updater.UpdateCheck]
	fetches  *observe.Value[updater.DownloadTask]
}

func NewStatusCoordinator(opts *Opts) (c *StatusCoordinator, err error) {
	if err = opts.sanitize(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	c = &StatusCoordinator{
		repo:      opts.Repo,
		releases:  opts.Releases,
		downloads: opts.Downloads,
		cache:     opts.Cache,
		prefs:     opts.Prefs,
		version:   opts.Version,
		volumesFn: opts.VolumesFn,
		ctx:       ctx,
		cancel:    cancel,
		l:         &sync.Mutex{},
		statuses:  make(map[commons.MediaKind]*observe.Value[[]commons.StatusItem]),
		saved:     make(map[commons.MediaKind]*observe.Value[[]commons.StatusItem]),
		clients:   observe.NewValue[[]wa.Client](),
		volumes:   observe.NewValue[[]storage.Volume](),
		catalog:   observe.NewValue[[]countries.Country](),
		selected:  observe.NewValue[countries.Country](),
		saves:     observe.NewValue[commons.SaveOutcome](),
		deletes:   observe.NewValue[commons.DeleteOutcome](),
		requests:  observe.NewValue[*mediastore.DeleteRequest](),
		updates:   observe.NewValue[updater.UpdateCheck](),
		fetches:   observe.NewValue[updater.DownloadTask](),
	}
	if c.downloads != nil {
		c.downloads.SetUpdateCallback(func(t updater.DownloadTask) {
			c.fetches.Set(t)
		})
	}
	return c, nil
}

// Close stops background work and drops the per-kind feeds.
func (c *StatusCoordinator) Close() {
	c.cancel()
	c.swg.Wait()
	c.l.Lock()
	c.statuses = make(map[commons.MediaKind]*observe.Value[[]commons.StatusItem])
	c.saved = make(map[commons.MediaKind]*observe.Value[[]commons.StatusItem])
	c.l.Unlock()
}

func (c *StatusCoordinator) run(fn func(ctx context.Context)) {
	c.swg.Add(1)
	go func() {
		defer c.swg.Done()
		fn(c.ctx)
	}()
}

// GetStatuses hands out the feed for kind, creating it on first use.
// Repeat calls return the same feed.
func (c *StatusCoordinator) GetStatuses(kind commons.MediaKind) *observe.Value[[]commons.StatusItem] {
	c.l.Lock()
	defer c.l.Unlock()
	box, ok := c.statuses[kind]
	if !ok {
		box = observe.NewValue[[]commons.StatusItem]()
		c.statuses[kind] = box
	}
	return box
}

// GetSavedStatuses is GetStatuses for the saved side.
func (c *StatusCoordinator) GetSavedStatuses(kind commons.MediaKind) *observe.Value[[]commons.StatusItem] {
	c.l.Lock()
	defer c.l.Unlock()
	box, ok := c.saved[kind]
	if !ok {
		box = observe.NewValue[[]commons.StatusItem]()
		c.saved[kind] = box
	}
	return box
}

// LoadStatuses rescans kind and publishes into its feed. A kind nobody
// asked for yet has no feed, so the refresh is skipped.
func (c *StatusCoordinator) LoadStatuses(kind commons.MediaKind, opts sources.ScanOpts) {
	c.l.Lock()
	box, ok := c.statuses[kind]
	c.l.Unlock()
	if !ok {
		log.Debugf("no open feed, skipping refresh", "kind", kind)
		return
	}
	c.run(func(ctx context.Context) {
		items, err := c.repo.Statuses(ctx, kind, opts)
		if err != nil {
			log.Errorf("status refresh failed", "kind", kind, "err", err)
			return
		}
		box.Set(items)
	})
}

// LoadSavedStatuses refreshes the saved feed for kind.
func (c *StatusCoordinator) LoadSavedStatuses(kind commons.MediaKind) {
	c.l.Lock()
	box, ok := c.saved[kind]
	c.l.Unlock()
	if !ok {
		log.Debugf("no open feed, skipping refresh", "kind", kind)
		return
	}
	c.run(func(ctx context.Context) {
		items, err := c.repo.SavedStatuses(ctx, kind)
		if err != nil {
			log.Errorf("saved refresh failed", "kind", kind, "err", err)
			return
		}
		box.Set(items)
	})
}

func (c *StatusCoordinator) Clients() *observe.Value[[]wa.Client] {
	return c.clients
}

func (c *StatusCoordinator) StorageDevices() *observe.Value[[]storage.Volume] {
	return c.volumes
}

func (c *StatusCoordinator) Countries() *observe.Value[[]countries.Country] {
	return c.catalog
}

func (c *StatusCoordinator) SelectedCountry() *observe.Value[countries.Country] {
	return c.selected
}

func (c *StatusCoordinator) Saves() *observe.Value[commons.SaveOutcome] {
	return c.saves
}

func (c *StatusCoordinator) Deletes() *observe.Value[commons.DeleteOutcome] {
	return c.deletes
}

// LoadClients publishes the installed client list.
func (c *StatusCoordinator) LoadClients() {
	c.run(func(ctx context.Context) {
		c.clients.Set(c.repo.Clients())
	})
}

// LoadStorageDevices publishes the mounted volume list.
func (c *StatusCoordinator) LoadStorageDevices() {
	c.run(func(ctx context.Context) {
		vols, err := c.volumesFn()
		if err != nil {
			log.Errorf("volume scan failed", "err", err)
			return
		}
		c.volumes.Set(vols)
	})
}

// LoadCountries publishes the dial code catalog.
func (c *StatusCoordinator) LoadCountries() {
	c.run(func(ctx context.Context) {
		all, err := c.repo.AllCountries()
		if err != nil {
			log.Errorf("country catalog failed", "err", err)
			return
		}
		c.catalog.Set(all)
	})
}

// LoadSelectedCountry publishes the remembered chat country.
func (c *StatusCoordinator) LoadSelectedCountry() {
	c.run(func(ctx context.Context) {
		sel, err := c.repo.DefaultCountry()
		if err != nil {
			log.Errorf("selected country lookup failed", "err", err)
			return
		}
		c.selected.Set(sel)
	})
}

// SetSelectedCountry persists the choice, then publishes it.
func (c *StatusCoordinator) SetSelectedCountry(country countries.Country) {
	c.run(func(ctx context.Context) {
		if err := c.repo.SetDefaultCountry(country); err != nil {
			log.Errorf("persisting country failed", "code", country.Code, "err", err)
			return
		}
		c.selected.Set(country)
	})
}

// WatchStatuses refreshes every open status feed when the client dirs
// change. Runs until the coordinator closes or the watcher dies.
func (c *StatusCoordinator) WatchStatuses(opts sources.WatchOpts, scan sources.ScanOpts) error {
	events, err := c.repo.Watch(c.ctx, opts)
	if err != nil {
		return err
	}
	c.run(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				for _, kind := range c.openKinds() {
					c.LoadStatuses(kind, scan)
				}
			}
		}
	})
	return nil
}

func (c *StatusCoordinator) openKinds() []commons.MediaKind {
	c.l.Lock()
	defer c.l.Unlock()
	kinds := make([]commons.MediaKind, 0, len(c.statuses))
	for k := range c.statuses {
		kinds = append(kinds, k)
	}
	return kinds
}
