package coordinator

import (
	"context"

	"go.uber.org/multierr"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/pkg/mediastore"
	"github.com/maxcodl/WhatSave/pkg/observe"
)

// SaveStatus copies one status into the save dir. The feed sees an
// in-progress record first, then exactly one terminal record for the
// same item. A skipped item comes back with an empty URI and no error.
func (c *StatusCoordinator) SaveStatus(item *commons.StatusItem, name string) {
	c.run(func(ctx context.Context) {
		c.saves.Set(commons.SaveOutcome{InProgress: true, Item: item})
		res, err := c.repo.SaveStatus(ctx, item, name)
		out := commons.SaveOutcome{Item: item, Err: err}
		if err == nil {
			out.URI = res.URI
			if res.URI != "" {
				out.Saved = 1
			}
		}
		c.saves.Set(out)
	})
}

// SaveStatuses saves a batch. Items that fail are reported through Err
// while the rest still land, Saved counts the ones that did.
func (c *StatusCoordinator) SaveStatuses(items []commons.StatusItem) {
	c.run(func(ctx context.Context) {
		c.saves.Set(commons.SaveOutcome{InProgress: true, Items: items})
		uris, err := c.repo.SaveStatuses(ctx, items)
		out := commons.SaveOutcome{Items: items, Err: err, URIs: make([]string, len(items))}
		for i, it := range items {
			uri := uris[it.Key()]
			out.URIs[i] = uri
			if uri != "" {
				out.Saved++
			}
		}
		c.saves.Set(out)
	})
}

// DeleteStatus removes one saved copy, file and index row both.
func (c *StatusCoordinator) DeleteStatus(item *commons.StatusItem) {
	c.run(func(ctx context.Context) {
		c.deletes.Set(commons.DeleteOutcome{InProgress: true, Item: item})
		ok, err := c.repo.DeleteStatus(ctx, item)
		out := commons.DeleteOutcome{Item: item, Deleted: ok, Err: err}
		if ok {
			out.Count = 1
		}
		c.deletes.Set(out)
	})
}

// DeleteStatuses removes a batch of saved copies, mixed kinds allowed.
// An empty batch still goes through both phases and reports zero
// removed.
func (c *StatusCoordinator) DeleteStatuses(items []commons.StatusItem) {
	c.run(func(ctx context.Context) {
		c.deletes.Set(commons.DeleteOutcome{InProgress: true, Items: items})
		byKind := map[commons.MediaKind][]string{}
		for _, it := range items {
			byKind[it.Kind] = append(byKind[it.Kind], it.Name)
		}
		var total int
		var errs error
		for kind, names := range byKind {
			count, err := c.repo.DeleteStatuses(ctx, kind, names)
			total += count
			errs = multierr.Append(errs, err)
		}
		c.deletes.Set(commons.DeleteOutcome{Items: items, Count: total, Err: errs})
	})
}

// DeleteRequests is the feed CreateDeleteRequest publishes into.
func (c *StatusCoordinator) DeleteRequests() *observe.Value[*mediastore.DeleteRequest] {
	return c.requests
}

// CreateDeleteRequest resolves names against the media index and
// publishes a pending request for the caller to confirm and execute.
// Names that resolve to nothing publish no request at all.
func (c *StatusCoordinator) CreateDeleteRequest(kind commons.MediaKind, names []string) {
	c.run(func(ctx context.Context) {
		req, err := c.repo.DeleteRequestFor(kind, names)
		if err != nil {
			log.Errorf("building delete request failed", "kind", kind, "err", err)
			return
		}
		if req.Count() == 0 {
			log.Debugf("no names resolved, not publishing", "asked", len(names))
			return
		}
		c.requests.Set(req)
	})
}

// ExecuteDeleteRequest runs a confirmed request and reports through the
// delete feed like any other removal.
func (c *StatusCoordinator) ExecuteDeleteRequest(req *mediastore.DeleteRequest) {
	c.run(func(ctx context.Context) {
		c.deletes.Set(commons.DeleteOutcome{InProgress: true})
		gone, err := req.Execute()
		c.deletes.Set(commons.DeleteOutcome{Count: len(gone), Err: err})
	})
}
