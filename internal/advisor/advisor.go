// Package advisor drafts diagnosis-aware advice through an external
// generation service and falls back to a fixed template when it cannot.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/internal/session"
)

// Advice sources.
const (
	SourceGenerated = "generated"
	SourceTemplate  = "template"
)

// Config bounds the advisor.
type Config struct {
	Timeout            time.Duration
	MaxHistory         int
	MaxPromptChars     int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// DefaultConfig returns the advisor defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:            5 * time.Second,
		MaxHistory:         session.DefaultMaxTurns,
		MaxPromptChars:     6000,
		BreakerMaxFailures: 3,
		BreakerOpenTimeout: 30 * time.Second,
	}
}

// Request is a single advice request.
type Request struct {
	Query     string
	Diagnosis *DiagnosisContext
	History   []session.Turn
}

// Advice is the advisor's answer.
type Advice struct {
	Advice              string    `json:"advice"`
	HasDiagnosisContext bool      `json:"has_diagnosis_context"`
	Source              string    `json:"source"`
	Timestamp           time.Time `json:"timestamp"`
}

// Advisor assembles prompts and degrades to TemplateAdvice on any
// generation failure. It is safe for concurrent use.
type Advisor struct {
	gen     Generator
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates an advisor. A nil generator means Unavailable.
func New(gen Generator, cfg Config, log *slog.Logger) *Advisor {
	if gen == nil {
		gen = Unavailable{}
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultConfig().BreakerMaxFailures
	}

	a := &Advisor{gen: gen, cfg: cfg, logger: log}
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "advisor-generation",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A caller that goes away says nothing about the generator.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("generation breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return a
}

// Advise never fails: generation errors and timeouts are logged and
// answered from the template.
func (a *Advisor) Advise(ctx context.Context, req Request) Advice {
	diag := req.Diagnosis
	if diag != nil {
		if err := diag.Validate(); err != nil {
			a.logger.Debug("ignoring diagnosis context", "error", err)
			diag = nil
		}
	}

	prompt := BuildPrompt(req.Query, diag, req.History, a.cfg.MaxHistory, a.cfg.MaxPromptChars)
	logger.SetLastPrompt(prompt.String())

	out := Advice{HasDiagnosisContext: diag != nil, Timestamp: time.Now().UTC()}

	text, err := a.generate(ctx, prompt)
	if err != nil {
		if !errors.Is(err, ErrGenerationUnavailable) {
			a.logger.Warn("advice generation failed, using template", "error", err)
		}
		out.Advice = TemplateAdvice(req.Query, diag)
		out.Source = SourceTemplate
		return out
	}

	out.Advice = text
	out.Source = SourceGenerated
	return out
}

func (a *Advisor) generate(ctx context.Context, prompt Prompt) (string, error) {
	if _, ok := a.gen.(Unavailable); ok {
		return "", ErrGenerationUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	res, err := a.breaker.Execute(func() (interface{}, error) {
		type result struct {
			text string
			err  error
		}
		done := make(chan result, 1)
		go func() {
			text, err := a.gen.Generate(ctx, prompt)
			done <- result{text, err}
		}()

		select {
		case r := <-done:
			if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", ErrGenerationTimeout, a.cfg.Timeout)
			}
			return r.text, r.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", ErrGenerationTimeout, a.cfg.Timeout)
			}
			return nil, fmt.Errorf("%w: %w", ErrGeneration, ctx.Err())
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
		}
		return "", err
	}
	return res.(string), nil
}

// BreakerState reports the generation circuit breaker state.
func (a *Advisor) BreakerState() string {
	return a.breaker.State().String()
}
