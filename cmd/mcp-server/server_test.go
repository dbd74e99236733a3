package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*Config)) *server {
	t.Helper()
	cfg := defaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := newServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func post(s http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tool", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ============================================================
// /tool
// ============================================================

func TestTool_Evaluate(t *testing.T) {
	s := newTestServer(t, nil)
	rec := post(s, `{"tool":"evaluate","params":{"curve":{"type":"curve","payload":{"type":"var","name":"X"},"op":"pow","exponent":2},"x":3}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, 9.0, out["result"])
	assert.Equal(t, "9", out["string"])
}

func TestTool_ToolError(t *testing.T) {
	s := newTestServer(t, nil)
	rec := post(s, `{"tool":"nope","params":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unknown tool")
}

func TestTool_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tool", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTool_BadJSON(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, post(s, `{"tool":`).Code)
}

func TestTool_UnknownField(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, post(s, `{"tool":"functions","extra":1}`).Code)
}

func TestTool_TrailingData(t *testing.T) {
	s := newTestServer(t, nil)
	rec := post(s, `{"tool":"functions"} {"tool":"functions"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "trailing data")
}

func TestTool_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.MaxBodyBytes = 16 })
	assert.Equal(t, http.StatusBadRequest, post(s, `{"tool":"functions","params":{}}`).Code)
}

func TestTool_RateLimited(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.RateLimit, c.Burst = 0.001, 1 })
	assert.Equal(t, http.StatusOK, post(s, `{"tool":"functions"}`).Code)
	rec := post(s, `{"tool":"functions"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode(t, rec)["error"])
}

func TestRecoverer_Panic(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.recoverer("/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ============================================================
// /schema, /health, /metrics
// ============================================================

func TestSchema(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	tools, ok := decode(t, rec)["tools"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tools, len(s.tools))
	assert.True(t, s.tools["solve"])
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestMetrics_CountsCalls(t *testing.T) {
	s := newTestServer(t, nil)
	post(s, `{"tool":"functions"}`)
	post(s, `{"tool":"made_up"}`)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `curves_tool_calls_total{result="ok",tool="functions"} 1`)
	assert.Contains(t, body, `curves_tool_calls_total{result="error",tool="unknown"} 1`)
	assert.NotContains(t, body, "made_up")
}

// ============================================================
// Configuration
// ============================================================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := writeConfig(t, "port: 9090\nrate_limit: 5\nburst: 2\nread_timeout: 3s\n")
	cfg, err := loadConfig(path, defaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 2, cfg.Burst)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
}

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, ""), defaultConfig())
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "prot: 9090\n"), defaultConfig())
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "port: 0\n"), defaultConfig())
	assert.Error(t, err)
	_, err = loadConfig(writeConfig(t, "log_level: loud\n"), defaultConfig())
	assert.Error(t, err)
}

func TestParseFlags_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "port: 9090\nlog_level: debug\n")
	cfg, err := parseFlags([]string{"-config", path, "-port", "7070"})
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}
