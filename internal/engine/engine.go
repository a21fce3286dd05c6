// Package engine ties retrieval, ranking, caching, session memory and the
// advisor together behind one explicitly constructed state aggregate.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/cache"
	"github.com/agrisense/advisor/internal/knowledge"
	"github.com/agrisense/advisor/internal/metrics"
	"github.com/agrisense/advisor/internal/session"
)

var (
	// ErrRetrievalUnavailable is returned by Ask before any snapshot is loaded.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable: no knowledge snapshot loaded")

	// ErrInvalidTuning is returned by Tune for out-of-range values.
	ErrInvalidTuning = knowledge.ErrInvalidTuning

	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrNoSource is returned by Reload when no artifact source is configured.
	ErrNoSource = errors.New("no artifact source configured")
)

// Source loads the entries a snapshot is built from.
type Source interface {
	Load(ctx context.Context) ([]knowledge.Entry, error)
	Describe() string
}

// Config sizes the engine.
type Config struct {
	Tuning          knowledge.Tuning
	DefaultTopK     int
	CacheSize       int
	SessionCapacity int
	SessionTurns    int
	EmbedTimeout    time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Tuning:          knowledge.DefaultTuning(),
		DefaultTopK:     3,
		CacheSize:       cache.DefaultSize,
		SessionCapacity: session.DefaultCapacity,
		SessionTurns:    session.DefaultMaxTurns,
		EmbedTimeout:    2 * time.Second,
	}
}

// Engine is the process-wide state: the active snapshot, the tuning, the
// result cache and session memory. Every method is safe for concurrent use.
type Engine struct {
	// mu guards snapshot, tuning and generation. Writers hold it only for
	// the pointer swap and the cache invalidation.
	mu         sync.RWMutex
	snapshot   *knowledge.Snapshot
	tuning     knowledge.Tuning
	generation uint64

	// reloadMu serializes snapshot builds so versions stay monotonic.
	reloadMu    sync.Mutex
	lastVersion uint64

	cfg      Config
	cache    *cache.ResultCache
	sessions *session.Store
	embedder embedding.Embedder
	advisor  *advisor.Advisor
	source   Source
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder sets the query embedding function.
func WithEmbedder(e embedding.Embedder) Option {
	return func(eng *Engine) { eng.embedder = e }
}

// WithAdvisor sets the advisor used by Advice.
func WithAdvisor(a *advisor.Advisor) Option {
	return func(eng *Engine) { eng.advisor = a }
}

// WithSource sets where Reload loads entries from.
func WithSource(s Source) Option {
	return func(eng *Engine) { eng.source = s }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(eng *Engine) { eng.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// New builds an engine with no snapshot loaded. Missing collaborators get
// null implementations: no embedder means sparse-only ranking, no advisor
// means template-only advice.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultConfig().DefaultTopK
	}

	resultCache, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewStore(cfg.SessionCapacity, cfg.SessionTurns)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		tuning:   cfg.Tuning,
		cfg:      cfg,
		cache:    resultCache,
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.embedder == nil {
		e.embedder = NullEmbedder{}
	}
	if e.advisor == nil {
		e.advisor = advisor.New(nil, advisor.DefaultConfig(), e.logger)
	}
	return e, nil
}

// NullEmbedder returns an empty vector for every text. Dense scores are
// then all 0 and ranking is decided by BM25 alone.
type NullEmbedder struct{}

func (NullEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	return make([][]float64, len(texts)), nil
}

// state returns a consistent view of the snapshot, tuning and generation.
func (e *Engine) state() (*knowledge.Snapshot, knowledge.Tuning, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot, e.tuning, e.generation
}
