package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"console/internal/domain"
	mcpserver "console/internal/mcp"
	"console/internal/service"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server on stdin/stdout",
	Long:  `Expose collections, records and imports to AI agents over the Model Context Protocol (stdio transport).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cfg, service.NopEmitter{})
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			svc.Close(ctx)
		}()

		srv := mcpserver.New(mcpserver.Deps{
			App:         domain.AppContext{AppID: appID},
			Collections: svc.collections,
			Records:     svc.records,
			Imports:     svc.imports,
		})
		return srv.ServeStdio()
	},
}
