package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-faster/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/commons"
	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/log"
)

type rmCfg struct {
	kind    string
	yes     bool
	request bool
}

var rmFlags rmCfg

func rmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm NAME...",
		Short: "delete saved statuses, file and index row both",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			if rmFlags.request {
				return rmViaRequest(ctx, a, args)
			}

			picked, err := pickSaved(ctx, a, rmFlags.kind, args)
			if err != nil {
				return err
			}
			if len(picked) == 0 {
				fmt.Println("nothing matches")
				return nil
			}
			renderItems(picked)
			if !rmFlags.yes && !confirm(fmt.Sprintf("delete %d saved statuses?", len(picked))) {
				fmt.Println("aborted")
				return nil
			}

			sub, stop := a.Coord.Deletes().Subscribe()
			defer stop()
			a.Coord.DeleteStatuses(picked)
			for {
				out, err := awaitFeed(ctx, sub)
				if err != nil {
					return err
				}
				if out.InProgress {
					continue
				}
				fmt.Printf("deleted %d of %d\n", out.Count, len(picked))
				return out.Err
			}
		},
	}
	cmd.Flags().StringVarP(&rmFlags.kind, "kind", "k", "all", "image, video or all")
	cmd.Flags().BoolVarP(&rmFlags.yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&rmFlags.request, "request", false, "resolve against the media index first, needs --kind")
	return cmd
}

// rmViaRequest resolves names into a pending request, shows what would
// go and only then executes.
func rmViaRequest(ctx context.Context, a *app.App, names []string) error {
	if rmFlags.kind == "all" || rmFlags.kind == "" {
		return errors.New("--request needs --kind image or --kind video")
	}
	kind, err := commons.ParseKind(rmFlags.kind)
	if err != nil {
		return err
	}

	rsub, rstop := a.Coord.DeleteRequests().Subscribe()
	defer rstop()
	a.Coord.CreateDeleteRequest(kind, names)

	// names resolving to nothing never publish a request
	tctx, tcancel := context.WithTimeout(ctx, 3*time.Second)
	defer tcancel()
	req, err := awaitFeed(tctx, rsub)
	if err != nil {
		fmt.Println("nothing to delete")
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"name", "size", "path"})
	for _, e := range req.Entries() {
		t.AppendRow(table.Row{e.Name, humanize.Bytes(uint64(e.Size)), e.AbsPath})
	}
	t.Render()
	if !rmFlags.yes && !confirm(fmt.Sprintf("delete these %d entries?", req.Count())) {
		fmt.Println("aborted")
		return nil
	}

	dsub, dstop := a.Coord.Deletes().Subscribe()
	defer dstop()
	a.Coord.ExecuteDeleteRequest(req)
	for {
		out, err := awaitFeed(ctx, dsub)
		if err != nil {
			return err
		}
		if out.InProgress {
			continue
		}
		fmt.Printf("deleted %d of %d\n", out.Count, req.Count())
		return out.Err
	}
}

func pickSaved(ctx context.Context, a *app.App, kindArg string, names []string) ([]commons.StatusItem, error) {
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
		items, err := a.Repo.SavedStatuses(ctx, k)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if want[it.Name] {
				picked = append(picked, it)
				delete(want, it.Name)
			}
		}
	}
	for n := range want {
		log.Warnf("not in the save dir", "name", n)
	}
	return picked, nil
}

func confirm(msg string) bool {
	ok := false
	if err := survey.AskOne(&survey.Confirm{Message: msg}, &ok); err != nil {
		return false
	}
	return ok
}
