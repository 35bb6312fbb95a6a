package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/log"
	"github.com/maxcodl/WhatSave/sources"
)

type saveCfg struct {
	kind   string
	all    bool
	as     string
	filter string
}

var saveFlags saveCfg

func saveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [NAME...]",
		Short: "copy statuses into the save dir before they expire",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !saveFlags.all {
				return errors.New("pass status names or --all")
			}
			if saveFlags.as != "" && len(args) != 1 {
				return errors.New("--as needs exactly one name")
			}
			ctx := cmd.Context()
			a, err := app.New(ctx, app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			picked, err := pickItems(ctx, a, saveFlags.kind, saveFlags.filter, args)
			if err != nil {
				return err
			}
			if len(picked) == 0 {
				fmt.Println("nothing to save")
				return nil
			}

			sub, stop := a.Coord.Saves().Subscribe()
			defer stop()
			if len(picked) == 1 {
				a.Coord.SaveStatus(&picked[0], saveFlags.as)
			} else {
				a.Coord.SaveStatuses(picked)
			}
			for {
				out, err := awaitFeed(ctx, sub)
				if err != nil {
					return err
				}
				if out.InProgress {
					continue
				}
				return renderSaveOutcome(out)
			}
		},
	}
	cmd.Flags().StringVarP(&saveFlags.kind, "kind", "k", "all", "image, video or all")
	cmd.Flags().BoolVar(&saveFlags.all, "all", false, "save every current status")
	cmd.Flags().StringVar(&saveFlags.as, "as", "", "save under this name, single status only")
	cmd.Flags().StringVar(&saveFlags.filter, "filter", "", "expr filter applied before saving")
	return cmd
}

func pickItems(ctx context.Context, a *app.App, kindArg, filter string, names []string) ([]commons.StatusItem, error) {
	kinds, err := parseKinds(kindArg)
	if err != nil {
		return nil, err
	}
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	var picked []commons.StatusItem
	for _, k := range kinds {
		items, err := a.Repo.Statuses(ctx, k, sources.ScanOpts{Filter: filter})
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if len(names) == 0 || want[it.Name] {
				picked = append(picked, it)
				delete(want, it.Name)
			}
		}
	}
	for n := range want {
		log.Warnf("status not found", "name", n)
	}
	return picked, nil
}

func renderSaveOutcome(out commons.SaveOutcome) error {
	if out.Item != nil {
		switch {
		case out.Err != nil:
			color.Red("failed %s: %v", out.Item.Name, out.Err)
		case out.URI == "":
			color.Yellow("skipped %s, already saved", out.Item.Name)
		default:
			color.Green("saved %s -> %s", out.Item.Name, out.URI)
		}
		return out.Err
	}
	for i, it := range out.Items {
		if i < len(out.URIs) && out.URIs[i] != "" {
			color.Green("saved %s -> %s", it.Name, out.URIs[i])
		} else {
			color.Yellow("skipped %s", it.Name)
		}
	}
	fmt.Printf("saved %d of %d\n", out.Saved, len(out.Items))
	return out.Err
}
