package main

import (
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/autods/autods/internal/mcp"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline as an MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, err := opts.newAgent(cmd.Context(), store)
			if err != nil {
				return err
			}

			server := mcp.NewServer(pipeline, "autods", version, opts.logger)
			opts.logger.Info("Starting AutoDS MCP server over stdio", "version", version)
			return server.Run(cmd.Context(), &mcpsdk.StdioTransport{})
		},
	}
}
