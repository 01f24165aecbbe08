package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("EXAM_DB_URL", "postgres://exam@localhost/exam")
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
postgres:
  url: ${EXAM_DB_URL}
exam:
  cache_ttl: 5m
  unique_results: true
invitations:
  cron: "*/10 * * * *"
  window: 2h
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://exam@localhost/exam" {
		t.Fatalf("expected env expansion, got %q", cfg.Postgres.URL)
	}
	if !cfg.Exam.UniqueResults || cfg.Invitations.Cron != "*/10 * * * *" {
		t.Fatalf("unexpected exam/invitations config %+v %+v", cfg.Exam, cfg.Invitations)
	}
	if got := TTLDuration(cfg.Invitations.Window, time.Hour); got != 2*time.Hour {
		t.Fatalf("expected 2h window, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
