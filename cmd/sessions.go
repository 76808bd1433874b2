package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/apotek/apotek/internal/app"
	"github.com/apotek/apotek/internal/config"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/session"
)

func newSessionsCmd(logger log.Logger) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage conversation sessions",
	}
	sessionsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored sessions",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSessionStore(cmd.Context(), logger, runSessionsList)
			},
		},
		&cobra.Command{
			Use:   "delete <session-id>",
			Short: "Delete a session and its history",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid session ID %q", args[0])
				}
				return withSessionStore(cmd.Context(), logger, func(ctx context.Context, store session.Store) error {
					return runSessionsDelete(ctx, store, id)
				})
			},
		},
	)
	return sessionsCmd
}

// withSessionStore opens just the session backend, without the model stack.
func withSessionStore(ctx context.Context, logger log.Logger, fn func(context.Context, session.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.SessionBackend != config.SessionBackendPostgres {
		fmt.Println("session management requires the postgres session backend")
		fmt.Println("(the memory backend keeps sessions only for the lifetime of one process)")
		return nil
	}

	store, pool, err := app.NewSessionStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer func() {
		if pool != nil {
			pool.Close()
		}
	}()

	return fn(ctx, store)
}

func runSessionsList(ctx context.Context, store session.Store) error {
	summaries, err := store.List(ctx, 100, 0)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("no sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMESSAGES\tUSER\tLANGUAGE\tUPDATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			s.ID, s.MessageCount, s.UserID, s.Language,
			s.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runSessionsDelete(ctx context.Context, store session.Store, id uuid.UUID) error {
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	fmt.Printf("deleted %s\n", id)
	return nil
}
