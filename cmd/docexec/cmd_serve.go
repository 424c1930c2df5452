package main

import (
	"github.com/spf13/cobra"

	"github.com/jonwraymond/docexec/exec"
	"github.com/jonwraymond/docexec/mcpserver"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: "Starts an MCP server over stdin/stdout offering run_document,\n" +
			"search_tools and list_languages. Logs go to stderr with --verbose.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := g.loadOptions(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			executor, err := exec.New(opts)
			if err != nil {
				return err
			}
			srv := mcpserver.New(executor, version, opts.Logger)
			if opts.Logger != nil {
				opts.Logger.Logf("starting MCP server over stdio")
			}
			return srv.Run(cmd.Context())
		},
	}
}
