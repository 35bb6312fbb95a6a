package country_cmd

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maxcodl/WhatSave/pkg/app"
	"github.com/maxcodl/WhatSave/pkg/countries"
)

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [CODE]",
		Short: "remember the country for chat links",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.OptsFrom(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			var chosen countries.Country
			if len(args) == 1 {
				chosen, err = countries.ByCode(args[0])
				if err != nil {
					return err
				}
			} else {
				chosen, err = pickCountry()
				if err != nil {
					return err
				}
			}
			if err := a.Repo.SetDefaultCountry(chosen); err != nil {
				return err
			}
			color.Green("default country set to %s", chosen.Label())
			return nil
		},
	}
}

func pickCountry() (countries.Country, error) {
	all, err := countries.All()
	if err != nil {
		return countries.Country{}, err
	}
	labels := make([]string, len(all))
	for i, c := range all {
		labels[i] = c.Label()
	}
	var ans survey.OptionAnswer
	prompt := &survey.Select{
		Message:  "pick a country",
		Options:  labels,
		PageSize: 12,
	}
	if err := survey.AskOne(prompt, &ans); err != nil {
		return countries.Country{}, err
	}
	return all[ans.Index], nil
}
