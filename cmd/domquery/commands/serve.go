package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/domquery/observe"
	"github.com/jonwraymond/domquery/server"
	"github.com/jonwraymond/domquery/tools"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var (
		page pageFlags
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query tools, health checks and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			doc, release, err := page.open(ctx, cfg.Browser)
			if err != nil {
				return err
			}
			defer release()

			s, err := server.New(ctx, cfg, tools.NewCurrentDocument(doc))
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(context.WithoutCancel(ctx)) }()

			s.Logger().Info(ctx, "starting", observe.Field{Key: "version", Value: Version})
			return s.ListenAndServe(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	flags.StringVar(&page.file, "file", "", "HTML file to serve queries against")
	flags.StringVar(&page.url, "url", "", "Page URL; opened in Chrome unless --file is set")

	return cmd
}
