package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd(target, short string) *cobra.Command {
	return &cobra.Command{
		Use:   target,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Run(cmd.Context(), target, runOptions(cmd))
		},
	}
}
