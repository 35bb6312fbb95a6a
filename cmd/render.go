package cmd

import (
	"context"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/maxcodl/WhatSave/commons"
)

const nameColWidth = 44

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func renderItems(items []commons.StatusItem) {
	t := newTable()
	t.AppendHeader(table.Row{"name", "kind", "client", "size", "age", "saved"})
	for _, it := range items {
		saved := ""
		if it.Saved {
			saved = color.GreenString("yes")
		}
		t.AppendRow(table.Row{
			runewidth.Truncate(it.Name, nameColWidth, "…"),
			it.Kind,
			it.Client,
			humanize.Bytes(uint64(it.Size)),
			humanize.Time(it.ModTime),
			saved,
		})
	}
	t.Render()
}

// awaitFeed blocks until the feed publishes its next value.
func awaitFeed[T any](ctx context.Context, ch <-chan T) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func parseKinds(s string) ([]commons.MediaKind, error) {
	if s == "" || s == "all" {
		return commons.AllKinds(), nil
	}
	k, err := commons.ParseKind(s)
	if err != nil {
		return nil, err
	}
	return []commons.MediaKind{k}, nil
}
