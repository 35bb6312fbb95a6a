package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
)

func clientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "list messenger clients with a status folder on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			found := a.Repo.Clients()
			if len(found) == 0 {
				fmt.Printf("no status folders under %s\n", a.Cfg.BaseDir)
				return nil
			}
			t := newTable()
			t.AppendHeader(table.Row{"name", "package", "status dir"})
			for _, c := range found {
				t.AppendRow(table.Row{c.Name, c.Package, c.StatusDir(a.Cfg.BaseDir)})
			}
			t.Render()
			return nil
		},
	}
}
