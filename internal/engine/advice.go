package engine

import (
	"context"
	"time"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/enhance"
	"github.com/agrisense/advisor/internal/session"
)

// GreetingResponse is a session-independent welcome line.
type GreetingResponse struct {
	Language  string    `json:"language"`
	Greeting  string    `json:"greeting"`
	Timestamp time.Time `json:"timestamp"`
}

// Greeting returns the localized welcome line for lang.
func (e *Engine) Greeting(lang string) GreetingResponse {
	resolved := enhance.ResolveLanguage(lang)
	return GreetingResponse{
		Language:  resolved,
		Greeting:  enhance.Greeting(resolved),
		Timestamp: time.Now().UTC(),
	}
}

// AdviceRequest asks the advisor for free-form advice. When History is
// empty and SessionID is set, the session's recent turns are used instead.
type AdviceRequest struct {
	Query     string
	Diagnosis *advisor.DiagnosisContext
	History   []session.Turn
	SessionID string
}

// Advice never fails; generation problems are answered from the template.
func (e *Engine) Advice(ctx context.Context, req AdviceRequest) advisor.Advice {
	history := req.History
	if req.SessionID != "" {
		prior := e.sessions.AppendTurn(req.SessionID, session.RoleUser, req.Query)
		if len(history) == 0 {
			history = prior.Turns
		}
	}

	out := e.advisor.Advise(ctx, advisor.Request{
		Query:     req.Query,
		Diagnosis: req.Diagnosis,
		History:   history,
	})

	if req.SessionID != "" {
		e.sessions.AppendTurn(req.SessionID, session.RoleAssistant, out.Advice)
	}
	e.metrics.Generation(out.Source)
	return out
}
