package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maxcodl/WhatSave/pkg/cfg"
)

func configCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "config",
		Short: "manage the config file",
	}
	root.AddCommand(configInitCmd())
	root.AddCommand(configShowCmd())
	return root
}

func configInitCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "write a default config file to edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = filepath.Join(cfg.DefaultDir(), "config.yaml")
			}
			if err := cfg.WriteDefault(path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "where to write the file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "print the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			c, err := cfg.Load(cfgPath)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(c)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}
