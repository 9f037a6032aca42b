package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Practice.Lang != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := writeConfig(t, `
[practice]
lang = "es"
mode = "time"
duration = "45s"
stop-on-error = true
words = 40

[stats]
top = 12

[paths]
lessons = "/tmp/lessons.yaml"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Lang == nil || *cfg.Practice.Lang != "es" {
		t.Fatalf("unexpected lang: %v", cfg.Practice.Lang)
	}
	if cfg.Practice.Duration == nil || *cfg.Practice.Duration != 45*time.Second {
		t.Fatalf("unexpected duration: %v", cfg.Practice.Duration)
	}
	if cfg.Practice.StopOnError == nil || !*cfg.Practice.StopOnError {
		t.Fatalf("expected stop-on-error")
	}
	if cfg.Practice.Words == nil || *cfg.Practice.Words != 40 {
		t.Fatalf("unexpected words: %v", cfg.Practice.Words)
	}
	if cfg.Stats.Top == nil || *cfg.Stats.Top != 12 {
		t.Fatalf("unexpected top: %v", cfg.Stats.Top)
	}
	if got := PathOr(cfg.Paths.Lessons, "x"); got != "/tmp/lessons.yaml" {
		t.Fatalf("unexpected lessons path: %q", got)
	}
	if got := PathOr(cfg.Paths.DB, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "[practice]\nfocus-weak = true\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "focus-weak") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "keydrill", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "keydrill", "keydrill.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "keydrill", "keydrill.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
	if got := DefaultLessonsPath(); got != filepath.Join("/cfg", "keydrill", "lessons.yaml") {
		t.Fatalf("unexpected lessons path: %s", got)
	}
}
