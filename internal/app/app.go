// Package app wires the application together: configuration, tracing,
// Genkit, the pharmacy store, the tool registry, the planner, the session
// store, and the orchestration loop.
package app

import (
	"context"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apotek/apotek/internal/agent"
	"github.com/apotek/apotek/internal/config"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/pharmacy"
	"github.com/apotek/apotek/internal/session"
	"github.com/apotek/apotek/internal/tools"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Store    *pharmacy.Store
	Kit      *tools.Kit
	Registry *tools.Registry
	Sessions session.Store
	Agent    *agent.Agent

	// DBPool is non-nil only with the postgres session backend.
	DBPool *pgxpool.Pool

	otelCleanup func()
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}

// Ready reports readiness of external dependencies, for the /ready probe.
func (a *App) Ready(ctx context.Context) error {
	if a.DBPool != nil {
		return a.DBPool.Ping(ctx)
	}
	return nil
}
