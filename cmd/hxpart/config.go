package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is read from HXPART_* environment variables.
type Config struct {
	Addr string `env:"HXPART_ADDR" envDefault:":8080"`
	// Database is a SQLite file path, or "memory" for a store that lives
	// only as long as the process.
	Database       string `env:"HXPART_DATABASE" envDefault:"hxpart.db"`
	GraphQLEnabled bool   `env:"HXPART_GRAPHQL_ENABLED" envDefault:"true"`
	// SigningKey signs edit tokens. Empty generates a random key, which
	// invalidates open forms on every restart.
	SigningKey    string `env:"HXPART_SIGNING_KEY"`
	PlacementFile string `env:"HXPART_PLACEMENT_FILE"`
	LogLevel      string `env:"HXPART_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"HXPART_LOG_FORMAT" envDefault:"text"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("HXPART_LOG_LEVEL: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("HXPART_LOG_FORMAT: unknown format %q", c.LogFormat)
	}
}

// signingKey returns the configured key, or a random one for development.
func (c Config) signingKey(logger *slog.Logger) ([]byte, error) {
	if c.SigningKey != "" {
		return []byte(c.SigningKey), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	logger.Warn("HXPART_SIGNING_KEY not set; using a random key")
	return key, nil
}
