// Package app builds the full stack out of the config so every command
// starts from the same wiring.
package app

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/maxcodl/WhatSave/pkg/cfg"
	"github.com/maxcodl/WhatSave/pkg/coordinator"
	"github.com/maxcodl/WhatSave/pkg/kv"
	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/pkg/mediastore"
	"github.com/maxcodl/WhatSave/pkg/repository"
	"github.com/maxcodl/WhatSave/pkg/updater"
	"github.com/maxcodl/WhatSave/sources"
	"github.com/maxcodl/WhatSave/store"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type Opts struct {
	CfgPath string
	BaseDir string
	Debug   bool
}

// OptsFrom picks the root persistent flags off an executing command.
func OptsFrom(cmd *cobra.Command) *Opts {
	cfgPath, _ := cmd.Flags().GetString("config")
	base, _ := cmd.Flags().GetString("base-dir")
	debug, _ := cmd.Flags().GetBool("debug")
	return &Opts{CfgPath: cfgPath, BaseDir: base, Debug: debug}
}

// App is the wired stack. Close releases the index and prefs handles.
type App struct {
	Cfg   *cfg.AppCfg
	Repo  *repository.StatusRepository
	Coord *coordinator.StatusCoordinator
	Prefs kv.KV

	idx   *mediastore.Index
	prefs *kv.BoltDb
}

func New(ctx context.Context, opts *Opts) (*App, error) {
	c, err := cfg.Load(opts.CfgPath)
	if err != nil {
		return nil, err
	}
	if opts.BaseDir != "" {
		c.BaseDir = opts.BaseDir
	}
	if opts.Debug {
		c.Debug = true
	}
	log.SetDebug(c.Debug)

	idx, err := mediastore.Open(c.IndexPath())
	if err != nil {
		return nil, err
	}
	prefs, err := kv.NewBoltKv(c.PrefsPath())
	if err != nil {
		_ = idx.Close()
		return nil, err
	}
	src, err := sources.NewWASource(ctx, &sources.WASourceOpts{BaseDir: c.BaseDir, Clients: c.Clients})
	if err != nil {
		_ = idx.Close()
		_ = prefs.Close()
		return nil, err
	}
	st, err := store.NewMediaDirStore(c.SaveRoot, idx)
	if err != nil {
		_ = idx.Close()
		_ = prefs.Close()
		return nil, err
	}
	repo, err := repository.NewStatusRepository(&repository.Opts{
		BaseDir: c.BaseDir,
		Source:  src,
		Store:   st,
		Prefs:   prefs,
		Workers: c.Workers,
	})
	if err != nil {
		_ = idx.Close()
		_ = prefs.Close()
		return nil, err
	}
	cache, err := updater.NewCache(c.PackagesDir())
	if err != nil {
		_ = idx.Close()
		_ = prefs.Close()
		return nil, err
	}
	coord, err := coordinator.NewStatusCoordinator(&coordinator.Opts{
		Repo:      repo,
		Releases:  updater.NewClient(c.Update.Owner, c.Update.Repo),
		Downloads: updater.NewManager(c.DownloadsDir()),
		Cache:     cache,
		Prefs:     prefs,
		BaseDir:   c.BaseDir,
		Version:   Version,
	})
	if err != nil {
		_ = idx.Close()
		_ = prefs.Close()
		return nil, err
	}
	return &App{
		Cfg:   c,
		Repo:  repo,
		Coord: coord,
		Prefs: prefs,
		idx:   idx,
		prefs: prefs,
	}, nil
}

func (a *App) Close() error {
	a.Coord.Close()
	return multierr.Append(a.idx.Close(), a.prefs.Close())
}
