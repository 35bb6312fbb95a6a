package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("whatsave %s %s/%s\n", app.Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
