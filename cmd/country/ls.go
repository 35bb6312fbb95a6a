package country_cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/countries"
)

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "list the dial code catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := countries.All()
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"code", "name", "dial"})
			for _, c := range all {
				t.AppendRow(table.Row{c.Code, c.Name, c.DialCode()})
			}
			t.Render()
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "show the remembered country",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			sel, err := a.Repo.DefaultCountry()
			if err != nil {
				return err
			}
			fmt.Println(sel.Label())
			return nil
		},
	}
}
