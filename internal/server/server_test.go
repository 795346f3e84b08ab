package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gointegral/calculator"
	"github.com/njchilds90/gointegral/internal/config"
	"github.com/njchilds90/gointegral/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, mutate func(*config.ServerConfig)) *Server {
	t.Helper()
	cfg := config.Default().Server
	if mutate != nil {
		mutate(&cfg)
	}
	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calc := calculator.New(calculator.DefaultOptions(), calculator.WithRecorder(m), calculator.WithLogger(logger))
	return New(cfg, calc, m, logger)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestCalculateDefinite(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(s, http.MethodPost, "/calculate",
		`{"function":"x","type":"definite","lower_limit":"0","upper_limit":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp calculator.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "0.5", resp.ResultLaTeX)
	require.NotNil(t, resp.Graph)
	assert.Len(t, resp.Graph.X, 400)
}

func TestCalculateFailureIsStillOK(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(s, http.MethodPost, "/calculate", `{"function":"sin(","type":"indefinite"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "Technical details")
	assert.Len(t, body, 2)
}

func TestCalculateBadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	for _, body := range []string{
		`{"function":`,
		`{"function":"x","type":"improper"}`,
		`[1,2]`,
	} {
		w := do(s, http.MethodPost, "/calculate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) { c.MaxBodyBytes = 16 })
	w := do(s, http.MethodPost, "/calculate", `{"function":"x*x*x*x*x*x*x*x","type":"indefinite"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTool(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(s, http.MethodPost, "/tool", `{"tool":"diff","params":{"expr":"x^2","var":"x"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp calculator.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, "2*x", resp.String)
}

func TestToolRejectsMalformedBodies(t *testing.T) {
	s := newTestServer(t, nil)
	for _, body := range []string{
		`{"tool":"diff","extra":1}`,
		`{"tool":"diff"}{"tool":"diff"}`,
		`{"params":{}}`,
		`nope`,
	} {
		w := do(s, http.MethodPost, "/tool", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestSchemaAndHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, json.Valid(w.Body.Bytes()))

	w = do(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, health["time"])
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) {
		c.RateLimit = 0.001
		c.RateBurst = 2
	})
	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(s, http.MethodGet, "/health", "").Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	do(s, http.MethodPost, "/calculate", `{"function":"x","type":"indefinite"}`)

	w := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "integral_calculations_total")
	assert.Contains(t, body, `integral_http_requests_total{code="200",route="/calculate"}`)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, bytes.Contains(w.Body.Bytes(), []byte("panic")))
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) { c.Port = 0 })
	require.NoError(t, s.Start())
	assert.NoError(t, s.Stop(context.Background()))

	var idle Server
	assert.NoError(t, idle.Stop(context.Background()))
}

func TestNewLeavesGinModeAlone(t *testing.T) {
	newTestServer(t, nil)
	assert.Equal(t, gin.TestMode, gin.Mode())
}
