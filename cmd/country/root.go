package country_cmd

import (
	"github.com/spf13/cobra"
)

func CountryCmd() *cobra.Command {
	var cmd = cobra.Command{
		Use:   "country",
		Short: "dial code country for chat links",
	}
	cmd.AddCommand(lsCmd())
	cmd.AddCommand(getCmd())
	cmd.AddCommand(setCmd())
	return &cmd
}
