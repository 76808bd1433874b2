package cmd

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/mcp"
	"github.com/apotek/apotek/internal/pharmacy"
	"github.com/apotek/apotek/internal/tools"
)

func newMCPCmd(logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the pharmacy tools as an MCP server on stdio",
		Long: `Exposes the pharmacy tool set over the Model Context Protocol, so MCP
clients (Claude Desktop, editors) can query the catalog, check allergies,
and reserve medications. Logging goes to stderr; stdout carries JSON-RPC.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context(), logger)
		},
	}
}

// runMCP builds the kit directly: MCP mode needs no model provider and no
// session store, only the data layer.
func runMCP(ctx context.Context, logger log.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := pharmacy.Open(pharmacy.Config{DataDir: cfg.DataDir, Logger: logger})
	if err != nil {
		return fmt.Errorf("opening pharmacy store: %w", err)
	}
	kit, err := tools.NewKit(store, logger)
	if err != nil {
		return fmt.Errorf("creating tool kit: %w", err)
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:     "apotek",
		Version:  AppVersion,
		Kit:      kit,
		Language: i18n.Normalize(cfg.Language),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	logger.Info("MCP server listening on stdio")
	return runMCPTransport(ctx, server)
}

func runMCPTransport(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}
