package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/artifact"
	"github.com/agrisense/advisor/internal/config"
	"github.com/agrisense/advisor/internal/engine"
	"github.com/agrisense/advisor/internal/llm"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/internal/metrics"
)

// services is everything a command needs to answer questions.
type services struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	source  artifact.Source
	engine  *engine.Engine
}

// newServices wires the LLM provider, the artifact source and the engine.
// It does not load a snapshot; callers decide whether a failed load is fatal.
func newServices(ctx context.Context, cfg config.Config, logLevel string, w io.Writer) (*services, error) {
	if isVerbose() {
		logLevel = "debug"
	}
	log := logger.New(logLevel, cfg.Log.Format, w)

	gen, err := llm.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	embedder, err := llm.NewQueryEmbedder(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	source, err := artifact.Open(afero.NewOsFs(), cfg.ArtifactSettings())
	if err != nil {
		return nil, err
	}

	rec := metrics.New()
	opts := []engine.Option{
		engine.WithAdvisor(advisor.New(gen, cfg.AdvisorOptions(), log)),
		engine.WithSource(source),
		engine.WithMetrics(rec),
		engine.WithLogger(log),
	}
	if embedder != nil {
		opts = append(opts, engine.WithEmbedder(embedder))
	}

	eng, err := engine.New(cfg.EngineOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	log.Debug("services ready",
		"provider", string(cfg.LLM.Provider), "source", source.Describe(),
		"dense", embedder != nil)
	return &services{cfg: cfg, logger: log, metrics: rec, source: source, engine: eng}, nil
}

// loadSnapshot performs the initial reload and fails if it does not succeed.
func (r *services) loadSnapshot(ctx context.Context) error {
	res := r.engine.Reload(ctx)
	if !res.OK {
		return fmt.Errorf("load knowledge base from %s: %s", r.source.Describe(), res.Reason)
	}
	return nil
}
