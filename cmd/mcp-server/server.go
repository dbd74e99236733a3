package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	curves "github.com/njchilds90/gocurves"
)

type metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rejected *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curves_tool_calls_total",
			Help: "Total tool calls by tool and result",
		}, []string{"tool", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "curves_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"tool"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curves_requests_rejected_total",
			Help: "Requests rejected before reaching a tool, by reason",
		}, []string{"reason"}),
	}
}

type server struct {
	cfg     Config
	log     *slog.Logger
	limiter *rate.Limiter
	metrics *metrics
	tools   map[string]bool
	mux     *http.ServeMux
}

func newServer(cfg Config, logger *slog.Logger) (*server, error) {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	tools, err := toolNames()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s := &server{
		cfg:     cfg,
		log:     logger,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		metrics: newMetrics(reg),
		tools:   tools,
		mux:     http.NewServeMux(),
	}
	s.mux.Handle("/tool", s.recoverer("/tool", http.HandlerFunc(s.handleTool)))
	s.mux.Handle("/schema", s.recoverer("/schema", http.HandlerFunc(s.handleSchema)))
	s.mux.Handle("/health", s.recoverer("/health", http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return s, nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *server) httpServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}
}

// toolNames reads the tool names from the published schema so that metric
// labels stay bounded.
func toolNames() (map[string]bool, error) {
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal([]byte(curves.MCPToolSpec()), &spec); err != nil {
		return nil, fmt.Errorf("tool schema: %w", err)
	}
	names := make(map[string]bool, len(spec.Tools))
	for _, t := range spec.Tools {
		names[t.Name] = true
	}
	return names, nil
}

func (s *server) recoverer(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.metrics.rejected.WithLabelValues("panic").Inc()
				s.log.Error("panic in handler",
					slog.String("route", route),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// POST /tool: handle a tool call
func (s *server) handleTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter.Allow() {
		s.metrics.rejected.WithLabelValues("rate_limited").Inc()
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()

	var req curves.ToolRequest
	if err := dec.Decode(&req); err != nil {
		s.metrics.rejected.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// Ensure there's no trailing junk.
	if dec.More() {
		s.metrics.rejected.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
		return
	}

	label := req.Tool
	if !s.tools[label] {
		label = "unknown"
	}
	start := time.Now()
	resp := curves.HandleToolCall(req)
	elapsed := time.Since(start)

	result := "ok"
	if resp.Error != "" {
		result = "error"
	}
	s.metrics.calls.WithLabelValues(label, result).Inc()
	s.metrics.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	s.log.Debug("tool call",
		slog.String("tool", req.Tool),
		slog.String("result", result),
		slog.Duration("duration", elapsed))
	if resp.Error != "" {
		s.log.Info("tool call failed", slog.String("tool", req.Tool), slog.String("error", resp.Error))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /schema: tool schema for agent registration
func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, curves.MCPToolSpec())
}

// GET /health: liveness check
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
