package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/wa"
)

var chatCountry string

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat PHONE",
		Short: "print a wa.me link for a number without adding a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			code := chatCountry
			if code == "" {
				sel, err := a.Repo.DefaultCountry()
				if err != nil {
					return err
				}
				code = sel.Code
			}
			link, err := wa.ChatLink(code, args[0])
			if err != nil {
				return err
			}
			fmt.Println(link)
			return nil
		},
	}
	cmd.Flags().StringVar(&chatCountry, "country", "", "dial code country, defaults to the remembered one")
	return cmd
}
