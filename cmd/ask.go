package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apotek/apotek/internal/app"
	"github.com/apotek/apotek/internal/log"
)

func newAskCmd(logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), logger, strings.Join(args, " "))
		},
	}
}

func runAsk(ctx context.Context, logger log.Logger, question string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	sess, err := a.Sessions.Create(ctx)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	sink := &consoleSink{out: os.Stdout}
	if _, err := a.Agent.ExecuteStream(ctx, sess.ID, question, sink); err != nil {
		return fmt.Errorf("processing question: %w", err)
	}
	sink.finishLine()
	return nil
}
