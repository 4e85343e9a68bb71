// Package commands implements the CLI commands for the press asset pipeline.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/press/internal/app"
	"go.trai.ch/press/internal/build"
)

// CLI represents the command line interface for press.
type CLI struct {
	app      Application
	rootCmd  *cobra.Command
	jsonLogs func(enable bool)
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, target string, opts app.RunOptions) error
	Tasks() ([]string, error)
}

// Option configures a CLI.
type Option func(*CLI)

// WithJSONLogs registers the callback applying the --json-logs flag.
func WithJSONLogs(fn func(enable bool)) Option {
	return func(c *CLI) {
		c.jsonLogs = fn
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "press",
		Short:         "A front-end asset pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("notify", "auto", "Desktop notifications: auto, on, or off")
	rootCmd.PersistentFlags().IntP("jobs", "j", 0, "Maximum number of concurrent tasks (0 means one per CPU)")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.jsonLogs == nil {
			return
		}
		enable, _ := cmd.Flags().GetBool("json-logs")
		c.jsonLogs(enable)
	}

	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newBuildCmd(app.TaskBuildDev, "Build for development, then serve and rebuild on change"))
	rootCmd.AddCommand(c.newBuildCmd(app.TaskBuildProd, "Build minified, cache-busted assets and the service worker"))
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newTasksCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func runOptions(cmd *cobra.Command) app.RunOptions {
	notify, _ := cmd.Flags().GetString("notify")
	jobs, _ := cmd.Flags().GetInt("jobs")
	return app.RunOptions{Notify: notify, Parallelism: jobs}
}
