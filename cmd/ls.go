package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/sources"
)

type lsCfg struct {
	kind   string
	saved  bool
	client string
	filter string
	limit  int
}

var lsFlags lsCfg

func lsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "list statuses, live ones by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			kinds, err := parseKinds(lsFlags.kind)
			if err != nil {
				return err
			}
			var rows []commons.StatusItem
			for _, k := range kinds {
				var items []commons.StatusItem
				if lsFlags.saved {
					items, err = a.Repo.SavedStatuses(ctx, k)
				} else {
					items, err = a.Repo.Statuses(ctx, k, sources.ScanOpts{
						Clients: clientArg(lsFlags.client),
						Filter:  lsFlags.filter,
						Limit:   lsFlags.limit,
					})
				}
				if err != nil {
					return err
				}
				rows = append(rows, items...)
			}
			if len(rows) == 0 {
				fmt.Println("no statuses found")
				return nil
			}
			renderItems(rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lsFlags.kind, "kind", "k", "all", "image, video or all")
	cmd.Flags().BoolVar(&lsFlags.saved, "saved", false, "list the save dir instead of the live folders")
	cmd.Flags().StringVar(&lsFlags.client, "client", "", "only this messenger client")
	cmd.Flags().StringVar(&lsFlags.filter, "filter", "", `expr filter, e.g. 'size > 1000000 && age_hours < 12'`)
	cmd.Flags().IntVar(&lsFlags.limit, "limit", 0, "stop after this many per kind")
	return cmd
}

func clientArg(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
