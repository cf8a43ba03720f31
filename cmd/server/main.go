// Package main is the entry point for the social platform API server.
//
// main stays minimal: load configuration, build the logger, prepare the
// data directory, then hand off to internal/server.
//
//	JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
//	go run ./cmd/server -config .env
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/social-platform/internal/config"
	"github.com/sakif/social-platform/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "optional config file (.env, .yaml, .json, .toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)

	kind, dsn, _ := cfg.Store()
	if kind == config.StoreSQLite && dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Start()
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
