package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/engine"
	"github.com/agrisense/advisor/internal/knowledge"
	"github.com/agrisense/advisor/internal/metrics"
)

type stubSource struct {
	entries []knowledge.Entry
	err     error
}

func (s *stubSource) Load(context.Context) ([]knowledge.Entry, error) { return s.entries, s.err }
func (s *stubSource) Describe() string                               { return "stub" }

func testEntries() []knowledge.Entry {
	return []knowledge.Entry{
		{ID: "tomato-sun", Question: "How to grow tomatoes", Answer: "Tomatoes need full sun...", Tags: []string{"tomato"}},
		{ID: "rice-water", Question: "When should I water rice", Answer: "Keep paddy water 5 cm deep.", Tags: []string{"rice"}},
		{ID: "tomato-blight", Question: "Brown spots on tomato leaves", Answer: "Likely early blight.", Tags: []string{"tomato"}},
	}
}

func newTestServer(t *testing.T, load bool) (*Server, *engine.Engine, *stubSource) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := &stubSource{entries: testEntries()}

	eng, err := engine.New(engine.DefaultConfig(), engine.WithLogger(quiet), engine.WithSource(src))
	require.NoError(t, err)
	if load {
		res := eng.Reload(context.Background())
		require.True(t, res.OK, res.Reason)
	}

	srv := New(eng, metrics.New(), Options{
		Port:           0,
		AllowedOrigins: []string{"https://app.agrisense.example"},
		Version:        "test",
	}, quiet)
	return srv, eng, src
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleAsk(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/ask",
		`{"question": "tomato growing tips", "top_k": 2, "language": "en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var resp engine.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.Equal(t, "tomato-sun", resp.Results[0].EntryID)
	assert.Equal(t, "Tomatoes need full sun...", resp.Results[0].OriginalAnswer)
	assert.False(t, resp.Results[0].IsFallback)
}

func TestHandleAsk_Errors(t *testing.T) {
	srv, _, _ := newTestServer(t, false)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/ask", `{"question": "tomato"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var apiErr apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Error, "retrieval unavailable")
	assert.NotEmpty(t, apiErr.RequestID)

	rec = do(t, srv.Handler(), http.MethodPost, "/api/ask", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv.Handler(), http.MethodPost, "/api/ask", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/ask", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAsk_EmptyQuestion(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/ask", `{"question": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGreeting(t *testing.T) {
	srv, _, _ := newTestServer(t, false)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/greeting?language=hi", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp engine.GreetingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hi", resp.Language)
	assert.NotEmpty(t, resp.Greeting)

	req := httptest.NewRequest(http.MethodGet, "/api/greeting", nil)
	req.Header.Set("Accept-Language", "es-AR,es;q=0.9")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "es", resp.Language)
}

func TestHandleAdvice(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	body := `{
		"query": "What should I do about this?",
		"diagnosis_context": {
			"crop": "tomato",
			"disease_name": "early blight",
			"confidence": 87,
			"severity": "high",
			"treatments": ["Neem oil spray", {"name": "Mancozeb 75% WP", "type": "chemical"}]
		},
		"conversation_history": [{"role": "user", "message": "My tomato leaves have spots"}]
	}`
	rec := do(t, srv.Handler(), http.MethodPost, "/api/advice", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp advisor.Advice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.HasDiagnosisContext)
	assert.NotEmpty(t, resp.Advice)
	assert.Equal(t, advisor.SourceTemplate, resp.Source)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestHandleAdvice_InvalidDiagnosisIgnored(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/advice",
		`{"query": "help", "diagnosis_context": {"confidence": 250}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp advisor.Advice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.HasDiagnosisContext)
	assert.NotEmpty(t, resp.Advice)
}

func TestHandleTune(t *testing.T) {
	srv, eng, _ := newTestServer(t, true)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/admin/tune", `{"alpha": 0.7, "min_confidence": 0.2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TuneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 0.7, resp.Tuning.Alpha)

	rec = do(t, srv.Handler(), http.MethodPost, "/api/admin/tune", `{"alpha": -0.1, "min_confidence": 0.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, 0.7, resp.Tuning.Alpha)
	assert.Equal(t, 0.7, eng.Tuning().Alpha)

	rec = do(t, srv.Handler(), http.MethodPost, "/api/admin/tune", `{"min_confidence": 0.3, "top_k_max": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, knowledge.Tuning{Alpha: 0.7, MinConfidence: 0.3, TopKMax: 4}, eng.Tuning())

	rec = do(t, srv.Handler(), http.MethodGet, "/api/admin/tuning", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tuning knowledge.Tuning
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tuning))
	assert.Equal(t, 4, tuning.TopKMax)
}

func TestHandleReload(t *testing.T) {
	srv, _, src := newTestServer(t, true)

	src.entries = append(testEntries(), knowledge.Entry{ID: "maize", Question: "Maize spacing", Answer: "75 cm rows."})
	rec := do(t, srv.Handler(), http.MethodPost, "/api/admin/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res engine.ReloadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.OK)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, 4, res.Snapshot.Entries)

	src.entries = []knowledge.Entry{{ID: "x"}}
	rec = do(t, srv.Handler(), http.MethodPost, "/api/admin/reload", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.OK)
	assert.Contains(t, res.Reason, "empty answer")

	rec = do(t, srv.Handler(), http.MethodGet, "/api/admin/status", "")
	var st engine.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Ready)
	assert.Equal(t, 4, st.Snapshot.Entries)
	assert.Equal(t, "stub", st.Source)
}

func TestHandleHealth(t *testing.T) {
	srv, eng, _ := newTestServer(t, false)

	rec := do(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := eng.Install(testEntries())
	require.NoError(t, err)

	rec = do(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORS(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "https://app.agrisense.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.agrisense.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewBufferString(`{"question":"rice"}`))
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagates(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/tuning", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(engine.ErrRetrievalUnavailable))
	assert.Equal(t, http.StatusBadRequest, statusFor(engine.ErrInvalidTuning))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
