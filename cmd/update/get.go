package update_cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/go-faster/errors"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/updater"
)

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "download the newest release package into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			usub, ustop := a.Coord.Updates().Subscribe()
			defer ustop()
			a.Coord.GetUpdateState()
			state, err := next(ctx, usub)
			if err != nil {
				return err
			}
			switch {
			case state.Err != nil:
				return state.Err
			case state.Downloading:
				fmt.Println("a download is already running")
				return nil
			case state.Package != "":
				color.Green("package ready: %s", state.Package)
				return nil
			case state.Latest == nil:
				color.Yellow("no release information")
				return nil
			case !state.Newer:
				color.Green("up to date, running %s", state.Current)
				return nil
			}

			rel := state.Latest
			fsub, fstop := a.Coord.Fetches().Subscribe()
			defer fstop()
			a.Coord.DownloadRelease(rel)

			pw := progress.NewWriter()
			pw.SetOutputWriter(os.Stdout)
			go pw.Render()
			tracker := &progress.Tracker{
				Message: "downloading " + rel.AssetName,
				Total:   rel.AssetSize,
				Units:   progress.UnitsBytes,
			}
			pw.AppendTracker(tracker)

			var last updater.DownloadTask
			for {
				task, err := next(ctx, fsub)
				if err != nil {
					pw.Stop()
					return err
				}
				tracker.SetValue(task.Done)
				if task.Status.IsFinished() {
					last = task
					break
				}
			}
			if last.Status != updater.TaskDone {
				tracker.MarkAsErrored()
				pw.Stop()
				return errors.Errorf("download %s: %s", strings.ToLower(string(last.Status)), last.Err)
			}
			tracker.MarkAsDone()
			pw.Stop()

			// a second look moves the file into the package cache
			a.Coord.GetUpdateState()
			state, err = next(ctx, usub)
			if err != nil {
				return err
			}
			if state.Package != "" {
				color.Green("package ready: %s", state.Package)
			}
			return nil
		},
	}
}
