package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/press/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the build output and the image cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dist, _ := cmd.Flags().GetBool("dist")
			cache, _ := cmd.Flags().GetBool("cache")

			target := app.TaskClean
			switch {
			case dist && !cache:
				target = app.TaskCleanDist
			case cache && !dist:
				target = app.TaskCleanCache
			}
			return c.app.Run(cmd.Context(), target, runOptions(cmd))
		},
	}

	cmd.Flags().Bool("dist", false, "Only remove the build output")
	cmd.Flags().Bool("cache", false, "Only remove the image optimization cache")

	return cmd
}
