// Package panehost parses pane host command flags and composes the pane
// runtime behind the gateway.
package panehost

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	blocksqlite "github.com/paperbark/paperbark/internal/blockstore/sqlite"
	"github.com/paperbark/paperbark/internal/gateway"
	"github.com/paperbark/paperbark/internal/headless"
	entrypoint "github.com/paperbark/paperbark/internal/platform/cmd"
	"github.com/paperbark/paperbark/internal/webview"
)

// Config holds pane host command configuration.
type Config struct {
	HTTPAddr     string        `env:"PAPERBARK_PANEHOST_HTTP_ADDR"      envDefault:"localhost:8391"`
	DBPath       string        `env:"PAPERBARK_PANEHOST_DB_PATH"`
	GCGrace      time.Duration `env:"PAPERBARK_PANEHOST_GC_GRACE"       envDefault:"45s"`
	GCSweepDelay time.Duration `env:"PAPERBARK_PANEHOST_GC_SWEEP_DELAY" envDefault:"1m"`
	FetchTimeout time.Duration `env:"PAPERBARK_PANEHOST_FETCH_TIMEOUT"  envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "gateway HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "block store sqlite path")
	fs.DurationVar(&cfg.GCGrace, "gc-grace", cfg.GCGrace, "how long an unreferenced pane survives before a sweep may collect it")
	fs.DurationVar(&cfg.GCSweepDelay, "gc-sweep-delay", cfg.GCSweepDelay, "how long after the last release the deferred sweep fires")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "cap on a single pane fetch, redirects included")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the pane host gateway service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePanehost, func(context.Context) error {
		if err := serve(ctx, cfg); err != nil {
			return fmt.Errorf("serve panehost: %w", err)
		}
		return nil
	})
}

// serve wires the block store, renderer, engine, and gateway together and
// blocks until the context ends.
func serve(ctx context.Context, cfg Config) error {
	store, err := openBlockStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close block store: %v", err)
		}
	}()

	renderer := headless.New(headless.Config{FetchTimeout: cfg.FetchTimeout})
	hub := gateway.NewHub()
	engine := webview.NewEngine(webview.Config{
		Renderer:     renderer,
		Sink:         hub,
		GCGrace:      cfg.GCGrace,
		GCSweepDelay: cfg.GCSweepDelay,
	})
	defer engine.Close()

	server, err := gateway.New(gateway.Config{HTTPAddr: cfg.HTTPAddr}, engine, store, renderer, hub)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}

func openBlockStore(path string) (*blocksqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "blocks.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := blocksqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open block store: %w", err)
	}
	return store, nil
}
