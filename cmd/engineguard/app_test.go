package main

import (
	"os"
	"path/filepath"
	"testing"

	"engineguard/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestApp(t *testing.T) {
	tmpDir := t.TempDir()
	enginesRoot := filepath.Join(tmpDir, "engines")

	writeFile(t, filepath.Join(enginesRoot, "billing", "api", "_allowlist.rb"),
		"ALLOWED = []\n")
	parcel := filepath.Join(enginesRoot, "shipping", "app", "models", "parcel.rb")
	writeFile(t, parcel,
		"class Parcel\n  belongs_to :invoice, class_name: \"Billing::Invoice\"\nend\n")

	cfg := &config.Config{
		Version: 1,
		Engines: config.Engines{Path: enginesRoot},
		Scan:    config.Scan{Roots: []string{tmpDir}},
		Output:  config.Output{SARIF: filepath.Join(tmpDir, "report.sarif")},
	}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	violations, err := app.RunScan()
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if violations[0].Engine != "Billing" || violations[0].CurrentEngine != "Shipping" {
		t.Errorf("unexpected violation: %+v", violations[0])
	}

	if _, err := os.Stat(cfg.Output.SARIF); os.IsNotExist(err) {
		t.Error("SARIF report was not generated")
	}

	// Fixing the file clears its cached violations on the next change batch.
	writeFile(t, parcel, "class Parcel\nend\n")
	app.HandleChanges([]string{parcel})
	if remaining := app.aggregate(); len(remaining) != 0 {
		t.Errorf("expected no violations after fix, got %v", remaining)
	}

	// Deleted files drop out of the result set.
	writeFile(t, parcel, "class Parcel\n  belongs_to :invoice, class_name: \"Billing::Invoice\"\nend\n")
	app.HandleChanges([]string{parcel})
	if remaining := app.aggregate(); len(remaining) != 1 {
		t.Fatalf("expected violation to return, got %v", remaining)
	}
	if err := os.Remove(parcel); err != nil {
		t.Fatal(err)
	}
	app.HandleChanges([]string{parcel})
	if remaining := app.aggregate(); len(remaining) != 0 {
		t.Errorf("expected no violations after delete, got %v", remaining)
	}
}

func TestAppIsPolicyFile(t *testing.T) {
	tmpDir := t.TempDir()
	enginesRoot := filepath.Join(tmpDir, "engines")

	writeFile(t, filepath.Join(enginesRoot, "billing", "api", "_allowlist.rb"), "ALLOWED = []\n")

	cfg := &config.Config{
		Version: 1,
		Engines: config.Engines{Path: enginesRoot},
		Scan:    config.Scan{Roots: []string{tmpDir}},
	}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(enginesRoot, "billing", "api", "_allowlist.rb"), true},
		{filepath.Join(enginesRoot, "billing", "api", "_legacy_dependents.rb"), true},
		{filepath.Join(enginesRoot, "billing", "app", "models", "invoice.rb"), false},
		{filepath.Join(tmpDir, "app", "models", "user.rb"), false},
	}
	for _, tc := range cases {
		if got := app.isPolicyFile(tc.path); got != tc.want {
			t.Errorf("isPolicyFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
