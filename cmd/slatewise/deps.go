package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rohankatakam/slatewise/internal/analysis"
	"github.com/rohankatakam/slatewise/internal/cache"
	"github.com/rohankatakam/slatewise/internal/config"
	"github.com/rohankatakam/slatewise/internal/llm"
	"github.com/rohankatakam/slatewise/internal/research"
	"github.com/rohankatakam/slatewise/internal/storage"
)

// services holds the wired dependencies shared by serve, analyze and research
type services struct {
	store    *storage.SQLStore
	llm      *llm.Client
	cache    *cache.Client // nil when disabled or unreachable
	engine   *analysis.Engine
	gatherer *research.Gatherer // nil without an llm provider
}

func openStore(cfg *config.Config) (*storage.SQLStore, error) {
	switch cfg.Storage.Type {
	case "postgres":
		return storage.NewPostgresStore(cfg.Storage.PostgresDSN, logger)
	case "sqlite", "":
		return storage.NewSQLiteStore(cfg.Storage.LocalPath, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Storage.Type)
	}
}

// buildServices opens storage, migrates it and wires the engine. registry may be nil.
func buildServices(ctx context.Context, cfg *config.Config, registry prometheus.Registerer) (*services, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate storage: %w", err)
	}

	resolveAPIKey(cfg)

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	svc := &services{store: store, llm: client}

	if cfg.Cache.Enabled {
		svc.cache, err = cache.NewClient(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.TTL)
		if err != nil {
			logger.WithError(err).Warn("Score cache unavailable, continuing without it")
			svc.cache = nil
		}
	}

	// Interface values stay nil unless a backend is really present
	opts := analysis.Options{
		ScoringTimeout:   cfg.Analysis.ScoringTimeout,
		SlateConcurrency: cfg.Analysis.SlateConcurrency,
		Metrics:          analysis.NewMetrics(registry),
	}
	if client.IsEnabled() {
		opts.Completer = client
		svc.gatherer = research.NewGatherer(client, store, string(client.GetProvider()), cfg.Analysis.ResearchTimeout)
	}
	if svc.cache != nil {
		opts.Cache = svc.cache
	}
	svc.engine = analysis.NewEngine(store, store, store, opts)

	return svc, nil
}

func (svc *services) Close() {
	if svc.cache != nil {
		svc.cache.Close()
	}
	if err := svc.store.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close storage")
	}
}

// resolveAPIKey fills a missing provider key through the credential chain
// (credentials file, then an interactive prompt when allowed)
func resolveAPIKey(cfg *config.Config) {
	var slot *string
	switch cfg.API.Provider {
	case "openai":
		slot = &cfg.API.OpenAIKey
	case "gemini":
		slot = &cfg.API.GeminiKey
	case "custom":
		slot = &cfg.API.CustomLLMKey
	default:
		return
	}
	if *slot != "" {
		return
	}

	key, err := config.NewCredentialManager().GetAPIKey(cfg.API.Provider)
	if err != nil {
		logger.WithError(err).Debug("No API key resolved")
		return
	}
	*slot = key
}
