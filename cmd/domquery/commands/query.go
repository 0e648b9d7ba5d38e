package commands

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/domquery/server"
	"github.com/jonwraymond/domquery/tools"
)

func (c *CLI) newQueryCmd() *cobra.Command {
	var (
		page         pageFlags
		in           tools.QueryInput
		noAttributes bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one selector or text query and print the result as JSON",
		Example: `  domquery query --file page.html --selector "a[href]"
  domquery query --url https://example.com --search "sign in" --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			doc, release, err := page.open(ctx, c.cfg.Browser)
			if err != nil {
				return err
			}
			defer release()

			s, err := server.New(ctx, c.cfg, tools.NewCurrentDocument(doc))
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(context.WithoutCancel(ctx)) }()

			if noAttributes {
				include := false
				in.IncludeAttributes = &include
			}
			input, err := json.Marshal(in)
			if err != nil {
				return err
			}

			out, err := s.Dispatcher().Call(ctx, tools.QueryDOM, input)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&page.file, "file", "", "HTML file to query")
	flags.StringVar(&page.url, "url", "", "Page URL; opened in Chrome unless --file is set")
	flags.StringVarP(&in.Selector, "selector", "s", "", "CSS selector")
	flags.StringVarP(&in.SearchText, "search", "t", "", "Text to search for")
	flags.IntVar(&in.Limit, "limit", 0, "Page size (default 20, max 100)")
	flags.IntVar(&in.Offset, "offset", 0, "Results to skip")
	flags.IntVar(&in.MaxTextLength, "max-text", 0, "Truncate element text to this many characters (default 500)")
	flags.BoolVar(&noAttributes, "no-attributes", false, "Omit element attributes")
	cmd.MarkFlagsMutuallyExclusive("selector", "search")
	cmd.MarkFlagsOneRequired("selector", "search")

	return cmd
}
