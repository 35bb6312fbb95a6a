package update_cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/updater"
)

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "drop cached release packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			cache, err := updater.NewCache(a.Cfg.PackagesDir())
			if err != nil {
				return err
			}
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Println("package cache cleared")
			return nil
		},
	}
}
