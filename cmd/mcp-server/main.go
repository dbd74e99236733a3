// cmd/mcp-server: standalone HTTP MCP server for gocurves
//
// Exposes the curve tools as an HTTP endpoint for AI agent frameworks.
//
// Usage:
//
//	go run ./cmd/mcp-server -port 8080 [-config server.yaml] [-rate 20]
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
// Metrics endpoint:   GET  /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(2)
	}
	level, _ := cfg.level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("server setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	srv := s.httpServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	}()

	logger.Info("gocurves MCP server listening",
		slog.String("addr", srv.Addr),
		slog.Float64("rate_limit", cfg.RateLimit),
		slog.Int64("max_body_bytes", cfg.MaxBodyBytes))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
