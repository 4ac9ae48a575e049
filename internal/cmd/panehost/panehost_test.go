package panehost

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("panehost", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "localhost:8391" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected empty db path, got %q", cfg.DBPath)
	}
	if cfg.GCGrace != 45*time.Second {
		t.Fatalf("expected default gc grace, got %v", cfg.GCGrace)
	}
	if cfg.GCSweepDelay != time.Minute {
		t.Fatalf("expected default sweep delay, got %v", cfg.GCSweepDelay)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("expected default fetch timeout, got %v", cfg.FetchTimeout)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("PAPERBARK_PANEHOST_HTTP_ADDR", "env-addr")
	t.Setenv("PAPERBARK_PANEHOST_GC_GRACE", "10s")

	fs := flag.NewFlagSet("panehost", flag.ContinueOnError)
	args := []string{
		"-http-addr", "flag-addr",
		"-db-path", "flag.db",
		"-gc-sweep-delay", "30s",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-addr" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
	if cfg.GCGrace != 10*time.Second {
		t.Fatalf("expected env gc grace, got %v", cfg.GCGrace)
	}
	if cfg.GCSweepDelay != 30*time.Second {
		t.Fatalf("expected flag sweep delay, got %v", cfg.GCSweepDelay)
	}
}
