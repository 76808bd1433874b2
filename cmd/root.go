// Package cmd implements the apotek command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/apotek/apotek/internal/config"
	"github.com/apotek/apotek/internal/log"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the CLI entry point, called from main.
func Execute() error {
	logger := initLogger()
	slog.SetDefault(logger)

	root := newRootCmd(logger)
	return root.Execute()
}

func newRootCmd(logger log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "apotek",
		Short: "Apotek - pharmacy assistant",
		Long: `Apotek is a bilingual (Hebrew/English) pharmacy assistant.
It answers medication questions, checks stock and allergies, and reserves
medications for pickup, always grounded in the pharmacy's own catalog.

Running apotek without arguments starts an interactive chat.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), logger)
		},
	}

	root.AddCommand(
		newChatCmd(logger),
		newAskCmd(logger),
		newServeCmd(logger),
		newSessionsCmd(logger),
		newMCPCmd(logger),
		newVersionCmd(),
	)
	return root
}

// initLogger builds the process logger. DEBUG in the environment enables
// debug level. Output goes to stderr; stdout belongs to the conversation
// (and to JSON-RPC in mcp mode).
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.New(cfg)
}

// loadConfig loads and validates the configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
