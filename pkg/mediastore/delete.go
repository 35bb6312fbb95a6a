package mediastore

import (
	"os"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"

	"github.com/maxcodl/WhatSave/pkg/log"
)

// DeleteRequest removes indexed media, file first then row. Built
// ahead of time so callers can show what is about to go.
type DeleteRequest struct {
	idx     *Index
	entries []Entry
}

// NewDeleteRequest resolves ids into a request. Unknown ids are
// dropped silently, so the request can end up empty.
func (x *Index) NewDeleteRequest(ids []int64) (*DeleteRequest, error) {
	r := &DeleteRequest{idx: x}
	for _, id := range ids {
		e, err := x.Get(id)
		if err != nil {
			log.Debugf("skipping unknown id", "id", id)
			continue
		}
		r.entries = append(r.entries, e)
	}
	return r, nil
}

func (r *DeleteRequest) Count() int {
	return len(r.entries)
}

func (r *DeleteRequest) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Execute removes the files and their rows. A file already gone still
// gets its row dropped. Returns the entries that went away.
func (r *DeleteRequest) Execute() ([]Entry, error) {
	var gone []Entry
	var errs error
	var rows []int64
	for _, e := range r.entries {
		if err := os.Remove(e.AbsPath); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, errors.Wrapf(err, "remove %s", e.Name))
			continue
		}
		rows = append(rows, e.ID)
		gone = append(gone, e)
	}
	if len(rows) > 0 {
		if _, err := r.idx.deleteRows(rows); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return gone, errs
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
