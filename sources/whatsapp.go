package sources

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-faster/errors"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/pkg/wa"
)

type WASourceOpts struct {
	BaseDir string
	// Clients narrows which messengers get scanned, empty = all
	// installed ones.
	Clients []string
}

type WASource struct {
	opts    *WASourceOpts
	clients []wa.Client
	ctx     context.Context
}

func NewWASource(ctx context.Context, opts *WASourceOpts) (*WASource, error) {
	if err := opts.sanitize(); err != nil {
		return nil, err
	}
	s := &WASource{
		opts: opts,
		ctx:  ctx,
	}
	s.clients = wa.Installed(opts.BaseDir)
	if len(s.clients) == 0 {
		log.Warnf("no messenger folders found", "base", opts.BaseDir)
	}
	return s, nil
}

func (o *WASourceOpts) sanitize() error {
	if o.BaseDir == "" {
		return errors.New("base dir required")
	}
	return nil
}

func (s *WASource) pickClients(names []string) []wa.Client {
	if len(names) == 0 && len(s.opts.Clients) > 0 {
		names = s.opts.Clients
	}
	if len(names) == 0 {
		return s.clients
	}
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	var out []wa.Client
	for _, c := range s.clients {
		if want[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// ScanItems walks the status folders and streams matching files,
// newest first.
func (s *WASource) ScanItems(ctx context.Context, kind commons.MediaKind, opts ScanOpts) (chan commons.StatusItem, error) {
	match, err := compileFilter(opts.Filter)
	if err != nil {
		return nil, err
	}
	var items []commons.StatusItem
	for _, c := range s.pickClients(opts.Clients) {
		dir := c.StatusDir(s.opts.BaseDir)
		if dir == "" {
			continue
		}
		ents, err := os.ReadDir(dir)
		if err != nil {
			log.Warnf("cannot read status dir", "dir", dir, "err", err)
			continue
		}
		for _, ent := range ents {
			if ent.IsDir() || !kind.Matches(ent.Name()) {
				continue
			}
			fi, err := ent.Info()
			if err != nil {
				continue
			}
			item := commons.StatusItem{
				Name:    ent.Name(),
				Client:  c.Name,
				Path:    filepath.Join(dir, ent.Name()),
				Kind:    kind,
				Size:    fi.Size(),
				ModTime: fi.ModTime(),
			}
			ok, err := match(&item)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ModTime.After(items[j].ModTime) })
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	ch := make(chan commons.StatusItem)
	go func() {
		defer close(ch)
		for _, it := range items {
			select {
			case ch <- it:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (s *WASource) ReadItem(ctx context.Context, i *commons.StatusItem) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(i.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", i.Name)
	}
	return data, nil
}

func filterEnv(i *commons.StatusItem) map[string]any {
	return map[string]any{
		"name":      i.Name,
		"client":    i.Client,
		"size":      i.Size,
		"age_hours": i.AgeHours(),
		"video":     i.Kind == commons.KindVideo,
	}
}

func compileFilter(src string) (func(*commons.StatusItem) (bool, error), error) {
	if src == "" {
		return func(*commons.StatusItem) (bool, error) { return true, nil }, nil
	}
	prog, err := expr.Compile(src, expr.Env(filterEnv(&commons.StatusItem{})), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "bad filter %q", src)
	}
	return func(i *commons.StatusItem) (bool, error) {
		out, err := runFilter(prog, i)
		if err != nil {
			return false, errors.Wrapf(err, "filter %q", src)
		}
		return out, nil
	}, nil
}

func runFilter(prog *vm.Program, i *commons.StatusItem) (bool, error) {
	out, err := expr.Run(prog, filterEnv(i))
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, errors.New("filter is not a bool")
	}
	return b, nil
}
