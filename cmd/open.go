package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
)

var openSaved bool

func openCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open NAME",
		Short: "open a status with the system viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			var picked string
			if openSaved {
				items, err := pickSaved(ctx, a, "all", args)
				if err != nil {
					return err
				}
				if len(items) > 0 {
					picked = items[0].Path
				}
			} else {
				items, err := pickItems(ctx, a, "all", "", args)
				if err != nil {
					return err
				}
				if len(items) > 0 {
					picked = items[0].Path
				}
			}
			if picked == "" {
				return errors.Errorf("no status named %s", args[0])
			}
			fmt.Println(picked)
			return openPath(picked)
		},
	}
	cmd.Flags().BoolVar(&openSaved, "saved", false, "look in the save dir instead of the live folders")
	return cmd
}

func openPath(path string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", path)
	case "windows":
		c = exec.Command("cmd", "/c", "start", "", path)
	default:
		c = exec.Command("xdg-open", path)
	}
	if err := c.Start(); err != nil {
		return errors.Wrap(err, "launch viewer")
	}
	return nil
}
