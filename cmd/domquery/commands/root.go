// Package commands implements the domquery CLI commands.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/domquery/config"
)

// Version is the application version.
// It defaults to "dev" and can be overwritten by linker flags.
var Version = "dev"

// CLI represents the command line interface for domquery.
type CLI struct {
	cfg     config.Config
	rootCmd *cobra.Command
}

// New creates a new CLI instance.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "domquery",
		Short:         "Query web pages by CSS selector or text, with cached results",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")

	c := &CLI{
		cfg:     config.Default(),
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRunE = c.loadConfig

	rootCmd.AddCommand(c.newQueryCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
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

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "domquery version %s\n", Version)
		},
	}
}
