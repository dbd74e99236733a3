package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings. Values come from the defaults, then
// the optional yaml file, then explicitly set flags.
type Config struct {
	Port         int     `yaml:"port"`
	MaxBodyBytes int64   `yaml:"max_body_bytes"`
	RateLimit    float64 `yaml:"rate_limit"` // requests per second on /tool, 0 disables
	Burst        int     `yaml:"burst"`
	LogLevel     string  `yaml:"log_level"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
}

func defaultConfig() Config {
	return Config{
		Port:              8080,
		MaxBodyBytes:      1 << 20, // 1 MiB
		RateLimit:         0,
		Burst:             10,
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// loadConfig overlays the yaml file at path on cfg. Unknown keys are
// rejected so that typos do not pass silently.
func loadConfig(path string, cfg Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: port %d out of range", c.Port)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("config: max_body_bytes must be positive")
	case c.RateLimit < 0:
		return fmt.Errorf("config: rate_limit must not be negative")
	case c.RateLimit > 0 && c.Burst <= 0:
		return fmt.Errorf("config: burst must be positive when rate_limit is set")
	}
	_, err := c.level()
	return err
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// parseFlags builds the configuration from command line arguments.
func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("mcp-server", flag.ContinueOnError)
	port := fs.Int("port", 8080, "Port to listen on")
	path := fs.String("config", "", "Optional yaml config file")
	rps := fs.Float64("rate", 0, "Requests per second allowed on /tool (0 = unlimited)")
	level := fs.String("log-level", "info", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	if *path != "" {
		var err error
		if cfg, err = loadConfig(*path, cfg); err != nil {
			return cfg, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "rate":
			cfg.RateLimit = *rps
		case "log-level":
			cfg.LogLevel = *level
		}
	})
	return cfg, cfg.validate()
}
