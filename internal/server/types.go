package server

import (
	"encoding/json"

	"github.com/agrisense/advisor/internal/knowledge"
	"github.com/agrisense/advisor/internal/session"
)

// AskRequest is the payload for /api/ask
type AskRequest struct {
	Question  string `json:"question"`
	TopK      int    `json:"top_k"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language"`
}

// AdviceRequest is the payload for /api/advice. DiagnosisContext is kept
// raw so that a malformed object can be ignored rather than failing the
// request.
type AdviceRequest struct {
	Query               string          `json:"query"`
	DiagnosisContext    json.RawMessage `json:"diagnosis_context,omitempty"`
	ConversationHistory []session.Turn  `json:"conversation_history,omitempty"`
	SessionID           string          `json:"session_id,omitempty"`
}

// TuneRequest is the payload for /api/admin/tune
type TuneRequest struct {
	Alpha         *float64 `json:"alpha"`
	MinConfidence *float64 `json:"min_confidence"`
	TopKMax       *int     `json:"top_k_max,omitempty"`
}

// TuneResponse is the response for /api/admin/tune
type TuneResponse struct {
	OK     bool             `json:"ok"`
	Error  string           `json:"error,omitempty"`
	Tuning knowledge.Tuning `json:"tuning"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version,omitempty"`
}
