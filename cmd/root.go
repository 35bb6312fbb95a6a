package cmd

import (
	"os"

	"github.com/spf13/cobra"

	country_cmd "github.com/maxcodl/WhatSave/cmd/country"
	update_cmd "github.com/maxcodl/WhatSave/cmd/update"
)

var rootCmd = &cobra.Command{
	Use:          "whatsave",
	Short:        "save, browse and manage WhatsApp statuses from the terminal",
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path")
	rootCmd.PersistentFlags().String("base-dir", "", "shared storage root holding the messenger folders")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging")

	rootCmd.AddCommand(lsCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(clientsCmd())
	rootCmd.AddCommand(volumesCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(country_cmd.CountryCmd())
	rootCmd.AddCommand(update_cmd.UpdateCmd())
}
