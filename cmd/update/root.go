package update_cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func UpdateCmd() *cobra.Command {
	var cmd = cobra.Command{
		Use:   "update",
		Short: "version checks and release downloads",
	}
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(getCmd())
	cmd.AddCommand(clearCmd())
	return &cmd
}

func next[T any](ctx context.Context, ch <-chan T) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
