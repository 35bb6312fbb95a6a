package store

import (
	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/mediastore"
)

type Store interface {
	Write(i *commons.StatusItem, data []byte) (mediastore.Entry, error)
	ItemExists(i *commons.StatusItem) bool
	Entries(kind commons.MediaKind) ([]mediastore.Entry, error)
	SavedNames(kind commons.MediaKind) (map[string]int64, error)
	ResolveNames(kind commons.MediaKind, names []string) ([]int64, error)
	DeleteRequest(ids []int64) (*mediastore.DeleteRequest, error)
	Reconcile() (int, error)
}
