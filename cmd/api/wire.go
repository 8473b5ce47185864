package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go-deepsearch/internal/agents/coordinator/handler"
	executor "go-deepsearch/internal/agents/executor/handler"
	planner "go-deepsearch/internal/agents/planner/handler"
	reviewer "go-deepsearch/internal/agents/reviewer/handler"
	"go-deepsearch/internal/config"
	"go-deepsearch/internal/telemetry"
	"go-deepsearch/pkg/llm"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/tools"
	"go-deepsearch/pkg/tools/search"
)

// app is everything a run needs, built once per process.
type app struct {
	cfg         *config.Config
	coordinator *handler.Coordinator
	metrics     *telemetry.Metrics
	closers     []func() error
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// closeLogged closes the app and logs instead of returning the error; used in defers.
func (a *app) closeLogged() {
	if err := a.Close(); err != nil {
		log.Warn().Err(err).Msg("closing components")
	}
}

func setup(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := logger.NewGlobal(cfg.Log.Level, cfg.Log.Pretty); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	a := &app{cfg: cfg}
	if cfg.Metrics.Enabled {
		a.metrics = telemetry.New()
	}

	if cfg.LLM.APIKey == "" {
		log.Warn().Msg("llm.api_key is empty, model calls will fail")
	}
	model, err := llm.NewOpenAI(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	searcher, err := search.New(search.Provider(cfg.Search.Provider), search.Options{
		APIKey:     cfg.Search.APIKey,
		Depth:      cfg.Search.Depth,
		MaxResults: cfg.Search.MaxResults,
		Timeout:    cfg.Search.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var cache tools.Cache
	switch cfg.Cache.Backend {
	case "memory":
		cache = tools.NewMemoryCache()
	case "redis":
		rc, err := tools.NewRedisCache(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, cfg.Search.Timeout)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		cache = rc
		a.closers = append(a.closers, rc.Close)
	}

	workspace, err := tools.NewWorkspace(cfg.Workspace.Root, cfg.Workspace.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	toolbox := tools.NewToolbox(
		tools.NewWebSearcher(searcher, cache, cfg.Cache.TTL, cfg.Search.TopResults),
		workspace,
	)

	a.coordinator = handler.New(
		planner.New(model, workspace.Tree),
		executor.New(model, toolbox, cfg.Agent.ExecutorMaxTurns, a.metrics),
		reviewer.New(model, cfg.Agent.ConfidenceThreshold),
		model,
		handler.Options{
			MaxIterations: cfg.Agent.MaxIterations,
			Threshold:     cfg.Agent.ConfidenceThreshold,
			Similarity:    cfg.Search.SimilarityThreshold,
		},
		a.metrics,
	)

	log.Debug().
		Str("model", cfg.LLM.Model).
		Str("search", cfg.Search.Provider).
		Str("cache", cfg.Cache.Backend).
		Str("workspace", workspace.Root()).
		Msg("components ready")
	return a, nil
}
