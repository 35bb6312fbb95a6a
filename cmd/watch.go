package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/sources"
)

type watchCfg struct {
	kind     string
	autoSave bool
	debounce time.Duration
	poll     time.Duration
}

var watchFlags watchCfg

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "follow the status folders and report new arrivals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			a, err := app.New(ctx, app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			kinds, err := parseKinds(watchFlags.kind)
			if err != nil {
				return err
			}

			type refresh struct {
				kind  commons.MediaKind
				items []commons.StatusItem
			}
			updates := make(chan refresh)
			for _, k := range kinds {
				sub, stop := a.Coord.GetStatuses(k).Subscribe()
				defer stop()
				go func(k commons.MediaKind, sub <-chan []commons.StatusItem) {
					for items := range sub {
						select {
						case updates <- refresh{kind: k, items: items}:
						case <-ctx.Done():
							return
						}
					}
				}(k, sub)
			}

			if watchFlags.autoSave {
				ssub, sstop := a.Coord.Saves().Subscribe()
				defer sstop()
				go func() {
					for out := range ssub {
						if out.InProgress {
							continue
						}
						if out.Err != nil {
							color.Red("auto save failed: %v", out.Err)
							continue
						}
						color.Green("auto saved %d statuses", out.Saved)
					}
				}()
			}

			scan := sources.ScanOpts{}
			watchOpts := sources.WatchOpts{Debounce: watchFlags.debounce, Poll: watchFlags.poll}
			if err := a.Coord.WatchStatuses(watchOpts, scan); err != nil {
				return err
			}
			for _, k := range kinds {
				a.Coord.LoadStatuses(k, scan)
			}

			fmt.Println("watching, ctrl-c to stop")
			seen := map[string]bool{}
			baselined := map[commons.MediaKind]bool{}
			for {
				select {
				case <-ctx.Done():
					return nil
				case r := <-updates:
					var fresh []commons.StatusItem
					for _, it := range r.items {
						if seen[it.Key()] {
							continue
						}
						seen[it.Key()] = true
						if baselined[r.kind] {
							fresh = append(fresh, it)
						}
					}
					if !baselined[r.kind] {
						baselined[r.kind] = true
						fmt.Printf("tracking %d %s statuses\n", len(r.items), r.kind)
						continue
					}
					for _, it := range fresh {
						fmt.Printf("new %s from %s: %s\n", it.Kind, it.Client, it.Name)
					}
					if watchFlags.autoSave && len(fresh) > 0 {
						a.Coord.SaveStatuses(fresh)
					}
				}
			}
		},
	}
	cmd.Flags().StringVarP(&watchFlags.kind, "kind", "k", "all", "image, video or all")
	cmd.Flags().BoolVar(&watchFlags.autoSave, "auto-save", false, "save new statuses as they appear")
	cmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 0, "quiet period before a change fires")
	cmd.Flags().DurationVar(&watchFlags.poll, "poll", 0, "poll interval fallback")
	return cmd
}
