// Package repository ties the status folders, the save store and the
// preferences together behind one surface.
package repository

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/jinzhu/copier"
	"go.uber.org/multierr"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/countries"
	"github.com/maxcodl/WhatSave/pkg/kv"
	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/pkg/mediastore"
	"github.com/maxcodl/WhatSave/pkg/wa"
	"github.com/maxcodl/WhatSave/sources"
	"github.com/maxcodl/WhatSave/store"
)

const (
	prefsBucket = "prefs"
	countryKey  = "country"
	// fallbackCountry applies before the user ever picks one.
	fallbackCountry = "IN"
)

type Opts struct {
	BaseDir string
	Source  sources.Source
	Store   store.Store
	Prefs   kv.KV
	Workers int
}

type StatusRepository struct {
	base    string
	src     sources.Source
	store   store.Store
	prefs   kv.KV
	workers int
}

func NewStatusRepository(opts *Opts) (*StatusRepository, error) {
	if err := opts.sanitize(); err != nil {
		return nil, err
	}
	return &StatusRepository{
		base:    opts.BaseDir,
		src:     opts.Source,
		store:   opts.Store,
		prefs:   opts.Prefs,
		workers: opts.Workers,
	}, nil
}

func (o *Opts) sanitize() error {
	if o.Source == nil {
		return errors.New("source required")
	}
	if o.Store == nil {
		return errors.New("store required")
	}
	if o.Prefs == nil {
		o.Prefs = kv.GetInMemoryKv()
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return nil
}

// Clients lists the messengers with a status folder on this device.
func (r *StatusRepository) Clients() []wa.Client {
	return wa.Installed(r.base)
}

// Statuses scans the live status folders, marking items that already
// sit in the save store.
func (r *StatusRepository) Statuses(ctx context.Context, kind commons.MediaKind, opts sources.ScanOpts) ([]commons.StatusItem, error) {
	ch, err := r.src.ScanItems(ctx, kind, opts)
	if err != nil {
		return nil, err
	}
	saved, err := r.store.SavedNames(kind)
	if err != nil {
		return nil, err
	}
	items := []commons.StatusItem{}
	for it := range ch {
		if _, ok := saved[it.Name]; ok {
			it.Saved = true
		}
		items = append(items, it)
	}
	return items, ctx.Err()
}

// SavedStatuses lists what the save store holds, dropping index rows
// whose files are gone first.
func (r *StatusRepository) SavedStatuses(ctx context.Context, kind commons.MediaKind) ([]commons.StatusItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n, err := r.store.Reconcile(); err != nil {
		return nil, err
	} else if n > 0 {
		log.Debugf("dropped stale index rows", "count", n)
	}
	entries, err := r.store.Entries(kind)
	if err != nil {
		return nil, err
	}
	items := make([]commons.StatusItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryToItem(e))
	}
	return items, nil
}

func entryToItem(e mediastore.Entry) commons.StatusItem {
	return commons.StatusItem{
		Name:    e.Name,
		Path:    e.AbsPath,
		Kind:    e.Kind,
		Size:    e.Size,
		ModTime: e.DateAdded,
		URI:     e.URI(),
		Saved:   true,
	}
}

// SaveStatus copies one status into the save store. name overrides
// the stored file name when set. An item already saved is skipped and
// comes back with an empty URI.
func (r *StatusRepository) SaveStatus(ctx context.Context, item *commons.StatusItem, name string) (commons.StatusItem, error) {
	target := name
	if target == "" {
		target = item.Name
	}
	var out commons.StatusItem
	if err := copier.Copy(&out, item); err != nil {
		return commons.StatusItem{}, errors.Wrap(err, "clone item")
	}
	out.Name = target

	if r.store.ItemExists(&commons.StatusItem{Name: target, Kind: item.Kind}) {
		log.Debugf("already saved", "name", target)
		out.Saved = true
		out.URI = ""
		return out, nil
	}
	data, err := r.src.ReadItem(ctx, item)
	if err != nil {
		return commons.StatusItem{}, err
	}
	entry, err := r.store.Write(&out, data)
	if err != nil {
		return commons.StatusItem{}, err
	}
	out.Name = entry.Name
	out.Path = entry.AbsPath
	out.Size = entry.Size
	out.URI = entry.URI()
	out.Saved = true
	return out, nil
}

// SaveStatuses saves a batch on a small worker pool and maps each
// item key to the URI it got, empty when skipped. Failures do not
// stop the rest.
func (r *StatusRepository) SaveStatuses(ctx context.Context, items []commons.StatusItem) (map[string]string, error) {
	if len(items) == 0 {
		return map[string]string{}, nil
	}
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		out  = make(map[string]string, len(items))
		errs error
	)
	jobs := make(chan int)
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := r.SaveStatus(ctx, &items[i], "")
				mu.Lock()
				if err != nil {
					errs = multierr.Append(errs, errors.Wrapf(err, "save %s", items[i].Name))
				} else {
					out[items[i].Key()] = res.URI
				}
				mu.Unlock()
			}
		}()
	}
FEED:
	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			errs = multierr.Append(errs, ctx.Err())
			break FEED
		}
	}
	close(jobs)
	wg.Wait()
	return out, errs
}

// DeleteRequestFor resolves saved items into a delete request.
// Unknown names simply resolve to nothing.
func (r *StatusRepository) DeleteRequestFor(kind commons.MediaKind, names []string) (*mediastore.DeleteRequest, error) {
	ids, err := r.store.ResolveNames(kind, commons.UniqueStrings(names))
	if err != nil {
		return nil, err
	}
	return r.store.DeleteRequest(ids)
}

// DeleteStatus removes one saved item, reporting whether anything
// actually went away.
func (r *StatusRepository) DeleteStatus(ctx context.Context, item *commons.StatusItem) (bool, error) {
	n, err := r.DeleteStatuses(ctx, item.Kind, []string{item.Name})
	return n > 0, err
}

// DeleteStatuses removes saved items by name and returns how many
// were deleted.
func (r *StatusRepository) DeleteStatuses(ctx context.Context, kind commons.MediaKind, names []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	req, err := r.DeleteRequestFor(kind, names)
	if err != nil {
		return 0, err
	}
	gone, err := req.Execute()
	return len(gone), err
}

// Watch passes through folder change events.
func (r *StatusRepository) Watch(ctx context.Context, opts sources.WatchOpts) (chan sources.WatchEvent, error) {
	return r.src.Watch(ctx, opts)
}

// AllCountries lists the dial code catalog.
func (r *StatusRepository) AllCountries() ([]countries.Country, error) {
	return countries.All()
}

// DefaultCountry returns the picked country, falling back to the
// shipped default before any pick was made.
func (r *StatusRepository) DefaultCountry() (countries.Country, error) {
	raw, err := r.prefs.Get(prefsBucket, countryKey)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return countries.ByCode(fallbackCountry)
		}
		return countries.Country{}, err
	}
	return countries.ByCode(string(raw))
}

// SetDefaultCountry persists the pick.
func (r *StatusRepository) SetDefaultCountry(c countries.Country) error {
	if _, err := countries.ByCode(c.Code); err != nil {
		return err
	}
	return r.prefs.Set(prefsBucket, countryKey, []byte(c.Code))
}
