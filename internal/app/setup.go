package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apotek/apotek/db"
	"github.com/apotek/apotek/internal/agent"
	"github.com/apotek/apotek/internal/config"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/observability"
	"github.com/apotek/apotek/internal/pharmacy"
	"github.com/apotek/apotek/internal/session"
	"github.com/apotek/apotek/internal/tools"
)

// Setup initializes the application. Call Close on the returned App to
// release resources; on error everything already initialized is cleaned up.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing must be registered before genkit.Init picks up the provider.
	if cfg.Telemetry.Enabled {
		a.otelCleanup = observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Telemetry.Endpoint,
			ServiceName: cfg.Telemetry.ServiceName,
			Environment: cfg.Telemetry.Environment,
			Logger:      logger,
		})
	}

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	store, err := pharmacy.Open(pharmacy.Config{DataDir: cfg.DataDir, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("opening pharmacy store: %w", err)
	}
	a.Store = store

	kit, err := tools.NewKit(store, logger)
	if err != nil {
		return nil, fmt.Errorf("creating tool kit: %w", err)
	}
	a.Kit = kit

	registry := tools.NewRegistry(logger)
	if err := tools.RegisterAll(registry, kit); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	a.Registry = registry

	// Genkit needs its own tool declarations to advertise schemas to the
	// model; dispatch still goes through the registry.
	defined, err := tools.Define(g, kit)
	if err != nil {
		return nil, fmt.Errorf("defining tools: %w", err)
	}

	planner, err := agent.NewGenkitPlanner(agent.PlannerConfig{
		Genkit:    g,
		ModelName: cfg.FullModelName(),
		Tools:     defined,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating planner: %w", err)
	}

	sessions, pool, err := provideSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Sessions = sessions
	a.DBPool = pool

	loop, err := agent.New(agent.Config{
		Planner:      planner,
		Runner:       registry,
		Sessions:     sessions,
		Logger:       logger,
		MaxTurns:     cfg.MaxTurns,
		HistoryLimit: cfg.HistoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	a.Agent = loop

	return a, nil
}

// NewSessionStore opens only the configured session backend, for commands
// that manage sessions without the model stack.
func NewSessionStore(ctx context.Context, cfg *config.Config, logger log.Logger) (session.Store, *pgxpool.Pool, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	return provideSessionStore(ctx, cfg, logger)
}

// provideGenkit initializes Genkit with the configured model provider.
// Supports gemini (default), ollama, and openai.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	var g *genkit.Genkit

	switch provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama has no auto-discovery; the model must be registered.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideSessionStore creates the configured session backend. The postgres
// backend migrates the schema and returns its pool for lifecycle and
// readiness checks.
func provideSessionStore(ctx context.Context, cfg *config.Config, logger log.Logger) (session.Store, *pgxpool.Pool, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendPostgres:
		if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}

		poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL())
		if err != nil {
			return nil, nil, fmt.Errorf("parsing connection config: %w", err)
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 2
		poolCfg.MaxConnLifetime = 30 * time.Minute
		poolCfg.MaxConnIdleTime = 5 * time.Minute
		poolCfg.HealthCheckPeriod = time.Minute

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("creating connection pool: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pinging database: %w", err)
		}

		store, err := session.NewPostgres(pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("creating session store: %w", err)
		}
		logger.Info("using postgres session backend",
			"host", cfg.PostgresHost, "database", cfg.PostgresDBName)
		return store, pool, nil

	default: // memory
		logger.Debug("using in-memory session backend")
		return session.NewMemory(logger), nil, nil
	}
}
