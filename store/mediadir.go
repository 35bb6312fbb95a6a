package store

import (
	"os"
	"path/filepath"

	"github.com/flytam/filenamify"
	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/pkg/mediastore"
)

// MediaDirStore lands saved statuses in the gallery folders and keeps
// the media index in step.
type MediaDirStore struct {
	Root string
	idx  *mediastore.Index
}

func NewMediaDirStore(root string, idx *mediastore.Index) (*MediaDirStore, error) {
	if root == "" {
		return nil, errors.New("save root required")
	}
	m := &MediaDirStore{Root: root, idx: idx}
	if err := m.createStructure(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MediaDirStore) createStructure() error {
	for _, k := range commons.AllKinds() {
		if err := commons.EnsureDir(k.Dir(m.Root)); err != nil {
			return err
		}
	}
	return nil
}

// Write stores data under the kind folder and indexes it. An empty
// name gets the next free numbered one.
func (m *MediaDirStore) Write(i *commons.StatusItem, data []byte) (mediastore.Entry, error) {
	name := i.Name
	if name == "" {
		var err error
		name, err = m.nextName(i.Kind)
		if err != nil {
			return mediastore.Entry{}, err
		}
	}
	name, err := filenamify.Filenamify(name, filenamify.Options{Replacement: "_"})
	if err != nil {
		return mediastore.Entry{}, errors.Wrapf(err, "bad name %q", i.Name)
	}
	path := filepath.Join(i.Kind.Dir(m.Root), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return mediastore.Entry{}, errors.Wrapf(err, "write %s", name)
	}
	id, err := m.idx.Insert(mediastore.Entry{
		Name:    name,
		Kind:    i.Kind,
		RelPath: i.Kind.RelativePath(),
		AbsPath: path,
		Size:    int64(len(data)),
	})
	if err != nil {
		return mediastore.Entry{}, err
	}
	log.Debugf("saved item", "name", name, "path", path)
	return m.idx.Get(id)
}

// nextName finds a numbered save name that is free both in the index
// and on disk.
func (m *MediaDirStore) nextName(kind commons.MediaKind) (string, error) {
	names, err := m.idx.Names(kind)
	if err != nil {
		return "", err
	}
	for i := 1; ; i++ {
		n := kind.DefaultSaveName(i)
		if _, ok := names[n]; ok {
			continue
		}
		if _, err := os.Stat(filepath.Join(kind.Dir(m.Root), n)); err == nil {
			continue
		}
		return n, nil
	}
}

func (m *MediaDirStore) ItemExists(i *commons.StatusItem) bool {
	_, err := os.Stat(filepath.Join(i.Kind.Dir(m.Root), i.Name))
	return err == nil
}

func (m *MediaDirStore) Entries(kind commons.MediaKind) ([]mediastore.Entry, error) {
	return m.idx.ByKind(kind)
}

func (m *MediaDirStore) SavedNames(kind commons.MediaKind) (map[string]int64, error) {
	return m.idx.Names(kind)
}

func (m *MediaDirStore) ResolveNames(kind commons.MediaKind, names []string) ([]int64, error) {
	return m.idx.IDsForNames(kind, names)
}

func (m *MediaDirStore) DeleteRequest(ids []int64) (*mediastore.DeleteRequest, error) {
	return m.idx.NewDeleteRequest(ids)
}

func (m *MediaDirStore) Reconcile() (int, error) {
	return m.idx.Reconcile()
}
