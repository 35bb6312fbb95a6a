package sources

import (
	"context"

	"github.com/maxcodl/WhatSave/commons"
)

type Source interface {
	ScanItems(context.Context, commons.MediaKind, ScanOpts) (chan commons.StatusItem, error)
	ReadItem(context.Context, *commons.StatusItem) ([]byte, error)
	Watch(context.Context, WatchOpts) (chan WatchEvent, error)
}
