package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/storage"
)

func volumesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volumes",
		Short: "show mounted volumes and their free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			vols, err := storage.Volumes(a.Cfg.BaseDir)
			if err != nil {
				return err
			}
			t := newTable()
			t.AppendHeader(table.Row{"mount", "fs", "total", "free", "used"})
			for _, v := range vols {
				mount := v.Mount
				if v.Primary {
					mount = color.CyanString("%s *", mount)
				}
				used := fmt.Sprintf("%.0f%%", v.UsedPct)
				if v.UsedPct >= 90 {
					used = color.RedString(used)
				}
				t.AppendRow(table.Row{
					mount,
					v.Fstype,
					humanize.IBytes(v.Total),
					humanize.IBytes(v.Free),
					used,
				})
			}
			t.Render()
			return nil
		},
	}
}
