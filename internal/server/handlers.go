package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/engine"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// handleAsk
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeBody(r, &req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.engine.Ask(r.Context(), engine.AskRequest{
		Question:  req.Question,
		TopK:      req.TopK,
		SessionID: req.SessionID,
		Language:  req.Language,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("ask failed", "request_id", requestIDFrom(r.Context()), "error", err)
		}
		writeAPIError(w, r, status, err.Error())
		return
	}

	writeAPIJSON(w, resp)
}

// handleGreeting
func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("language")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	writeAPIJSON(w, s.engine.Greeting(lang))
}

// handleAdvice always answers 200 once the body parses; generation
// problems are answered from the template.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	diag, err := advisor.ParseDiagnosis(req.DiagnosisContext)
	if err != nil {
		s.logger.Debug("ignoring diagnosis context", "request_id", requestIDFrom(r.Context()), "error", err)
		diag = nil
	}

	writeAPIJSON(w, s.engine.Advice(r.Context(), engine.AdviceRequest{
		Query:     req.Query,
		Diagnosis: diag,
		History:   req.ConversationHistory,
		SessionID: req.SessionID,
	}))
}

// handleReload reports failures in the body; the old snapshot keeps serving.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, s.engine.Reload(r.Context()))
}

// handleTune keeps the current value for any omitted field.
func (s *Server) handleTune(w http.ResponseWriter, r *http.Request) {
	var req TuneRequest
	if err := decodeBody(r, &req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	tuning, err := s.engine.Tune(engine.TuneRequest{
		Alpha:         req.Alpha,
		MinConfidence: req.MinConfidence,
		TopKMax:       req.TopKMax,
	})
	if err != nil {
		writeAPIJSONStatus(w, statusFor(err), TuneResponse{OK: false, Error: err.Error(), Tuning: tuning})
		return
	}
	writeAPIJSON(w, TuneResponse{OK: true, Tuning: tuning})
}

// handleGetTuning
func (s *Server) handleGetTuning(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, s.engine.Tuning())
}

// handleStatus
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, s.engine.Status())
}

// handleHealth is 200 once a snapshot is loaded and 503 before.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.engine.Status().Ready
	resp := HealthResponse{Status: "ok", Ready: ready, Version: s.version}
	if !ready {
		resp.Status = "loading"
		writeAPIJSONStatus(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeAPIJSON(w, resp)
}
