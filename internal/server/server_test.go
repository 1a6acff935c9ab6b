package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusion-engine/internal/common/fuserr"
	"fusion-engine/internal/common/logger"
	"fusion-engine/internal/common/observability"
	"fusion-engine/internal/fusion"
)

// ==========================
// Test Helper Functions
// ==========================

type stubFuser struct {
	result *fusion.FusionResult
	err    error
	stats  fusion.Snapshot
	inputs []string
}

func (s *stubFuser) Process(_ context.Context, input string) (*fusion.FusionResult, error) {
	s.inputs = append(s.inputs, input)
	return s.result, s.err
}

func (s *stubFuser) Stats() fusion.Snapshot {
	return s.stats
}

func newTestServer(t *testing.T, fuser Fuser) *Server {
	t.Helper()
	return New(fuser, observability.New("fusion-engine-test", ""), logger.NewTestLogger(t))
}

func doRequest(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// ==========================
// /api/fuse
// ==========================

func TestHandleFuse_Success(t *testing.T) {
	stub := &stubFuser{
		result: &fusion.FusionResult{
			RequestID:     "req-1",
			Content:       "fused answer",
			Confidence:    0.91,
			TotalDuration: 42 * time.Millisecond,
		},
	}
	s := newTestServer(t, stub)

	rec := doRequest(t, s, http.MethodPost, "/api/fuse", []byte(`{"input":"what is the answer?"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var got fusion.FusionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "fused answer", got.Content)
	assert.InDelta(t, 0.91, got.Confidence, 1e-9)
	assert.Equal(t, []string{"what is the answer?"}, stub.inputs)
}

func TestHandleFuse_ValidationFailures(t *testing.T) {
	s := newTestServer(t, &stubFuser{result: &fusion.FusionResult{}})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing input", body: `{}`},
		{name: "empty input", body: `{"input":""}`},
		{name: "wrong type", body: `{"input":7}`},
		{name: "unknown field", body: `{"input":"ok","mode":"fast"}`},
		{name: "not json", body: `input=hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/fuse", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleFuse_BothProducersFailedMapsToBadGateway(t *testing.T) {
	stub := &stubFuser{err: fuserr.NewBothProducersFailedError("timeout", "model down")}
	s := newTestServer(t, stub)

	rec := doRequest(t, s, http.MethodPost, "/api/fuse", []byte(`{"input":"q"}`))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(fuserr.ErrCodeBothProducersFailed), resp.Code)
}

func TestHandleFuse_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &stubFuser{})
	rec := doRequest(t, s, http.MethodGet, "/api/fuse", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================
// /api/stats and /healthz
// ==========================

func TestHandleStats(t *testing.T) {
	stub := &stubFuser{
		stats: fusion.Snapshot{
			Primary:   fusion.ProducerStats{SuccessCount: 9, TotalCount: 10, AvgConfidence: 0.8, LearnedWeight: 0.7},
			Secondary: fusion.ProducerStats{SuccessCount: 3, TotalCount: 10, AvgConfidence: 0.4, LearnedWeight: 0.3},
		},
	}
	s := newTestServer(t, stub)

	rec := doRequest(t, s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got fusion.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, stub.stats, got)
}

func TestHandleHealthz(t *testing.T) {
	s := newTestServer(t, &stubFuser{})
	rec := doRequest(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
