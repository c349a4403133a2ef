package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"inventory-voice-assistant/internal/catalog"
	"inventory-voice-assistant/internal/config"
	"inventory-voice-assistant/internal/db"
	"inventory-voice-assistant/internal/metrics"
	"inventory-voice-assistant/internal/oracle"
	"inventory-voice-assistant/internal/orchestrator"
	"inventory-voice-assistant/internal/prompt"
	"inventory-voice-assistant/internal/ratelimit"
	"inventory-voice-assistant/internal/resolver"
)

// App holds the collaborators built once per process and shared by the
// commands. It is populated in the root Before hook.
type App struct {
	Config      config.Config
	Catalog     catalog.Store
	Oracle      oracle.Oracle
	Transcriber oracle.Transcriber
	Prompt      *prompt.Spec
	Metrics     *metrics.Recorder
	Health      func(context.Context) error

	closers []func()
}

// Bootstrap wires the catalog selected by cfg, the OpenAI oracle and the
// prompt spec.
func Bootstrap(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (*App, error) {
	spec, err := prompt.Load(cfg.PromptSpecPath)
	if err != nil {
		return nil, fmt.Errorf("load prompt spec: %w", err)
	}

	app := &App{Config: cfg, Prompt: spec, Metrics: metrics.MustNew(reg)}
	if err := app.openCatalog(ctx); err != nil {
		app.Close()
		return nil, err
	}

	oai := oracle.NewOpenAI(oracle.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.Model,
		STTModel:    cfg.STTModel,
		Temperature: spec.Style.Temperature,
		MaxTokens:   spec.Style.MaxTokens,
	})
	app.Oracle = oai
	app.Transcriber = oai
	return app, nil
}

func (a *App) openCatalog(ctx context.Context) error {
	cfg := a.Config
	logger := log.With().Str("cmp", "bootstrap").Str("catalog", cfg.CatalogSource()).Logger()

	switch cfg.CatalogSource() {
	case "postgres":
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = database.Close() })
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.Catalog = catalog.NewPostgres(database)
		a.Health = database.HealthCheck

	case "remote":
		a.Catalog = catalog.NewRemote(ctx, catalog.RemoteConfig{
			BaseURL:      cfg.CatalogAPIURL,
			ClientID:     cfg.CatalogClientID,
			ClientSecret: cfg.CatalogClientSecret,
			TokenURL:     cfg.CatalogTokenURL,
			Scopes:       cfg.CatalogScopes,
		})

	case "file":
		f, err := catalog.OpenFile(cfg.CatalogFile)
		if err != nil {
			return err
		}
		a.Catalog = f
		if cfg.CatalogWatch {
			watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			reloaded, err := f.Watch(watchCtx)
			if err != nil {
				cancel()
				return err
			}
			a.closers = append(a.closers, func() {
				cancel()
				for range reloaded {
				}
			})
		}

	default:
		logger.Warn().Msg("no catalog configured, starting with an empty in-memory catalog")
		a.Catalog = catalog.NewMemory(catalog.Snapshot{})
	}

	logger.Info().Msg("catalog ready")
	return nil
}

// NewOrchestrator builds an orchestrator with its own oracle budget, for a
// single conversation.
func (a *App) NewOrchestrator() *orchestrator.Orchestrator {
	res := resolver.NewService(a.Catalog, resolver.WithMetrics(a.Metrics))
	return orchestrator.New(a.Oracle, a.Prompt, res,
		ratelimit.New(a.Config.RateLimitMax, a.Config.RateLimitWindow),
		orchestrator.WithMetrics(a.Metrics),
		orchestrator.WithOracleTimeout(a.Config.OracleTimeout),
	)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
