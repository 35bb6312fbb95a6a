package update_cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/updater"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "ask the release feed for a newer version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			sub, stop := a.Coord.Updates().Subscribe()
			defer stop()
			a.Coord.GetLatestRelease()
			check, err := next(ctx, sub)
			if err != nil {
				return err
			}
			return renderCheck(check)
		},
	}
}

func renderCheck(check updater.UpdateCheck) error {
	if check.Err != nil {
		return check.Err
	}
	if check.Latest == nil {
		color.Yellow("no release information")
		return nil
	}
	if !check.Newer {
		color.Green("up to date, running %s", check.Current)
		return nil
	}
	color.Cyan("version %s available, running %s", check.Latest.Version, check.Current)
	if check.Latest.Notes != "" {
		fmt.Println(check.Latest.Notes)
	}
	if check.Latest.URL != "" {
		fmt.Println(check.Latest.URL)
	}
	return nil
}
