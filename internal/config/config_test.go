package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"engineguard/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engineguard.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
[engines]
path = "engines"
unprotected = ["billing"]
strongly_protected = ["shipping"]

[[engines.override]]
engine = "shipping"
allowed_modules = ["Billing::InternalHelper"]

[scan]
roots = ["app", "engines"]

[oracle]
enabled = true
command = ["bin/engineguard-oracle"]
timeout = "2s"

[watch]
debounce = "1s"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engines.Path != "engines" {
		t.Errorf("Expected engines path engines, got %s", cfg.Engines.Path)
	}
	if len(cfg.Engines.Unprotected) != 1 || cfg.Engines.Unprotected[0] != "billing" {
		t.Errorf("Unexpected unprotected list: %v", cfg.Engines.Unprotected)
	}
	if len(cfg.Engines.Overrides) != 1 || cfg.Engines.Overrides[0].Engine != "shipping" {
		t.Errorf("Unexpected overrides: %v", cfg.Engines.Overrides)
	}
	if cfg.Oracle.Timeout != 2*time.Second {
		t.Errorf("Expected oracle timeout 2s, got %v", cfg.Oracle.Timeout)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `[engines]
path = "engines"`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Oracle.Timeout != 5*time.Second {
		t.Errorf("Expected default oracle timeout 5s, got %v", cfg.Oracle.Timeout)
	}
	if len(cfg.Scan.Roots) != 1 || cfg.Scan.Roots[0] != "." {
		t.Errorf("Unexpected default roots: %v", cfg.Scan.Roots)
	}
	if cfg.DB.Path != "engineguard.db" {
		t.Errorf("Unexpected default db path: %s", cfg.DB.Path)
	}
}

func TestLoadMissingEnginesPath(t *testing.T) {
	_, err := Load(writeConfig(t, `version = 1`))
	if err == nil {
		t.Fatal("expected error for missing engines.path")
	}
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadOracleCommandRequired(t *testing.T) {
	content := `
[engines]
path = "engines"

[oracle]
enabled = true
`
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Error("expected error for enabled oracle without command")
	}
}

func TestLoadError(t *testing.T) {
	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}
