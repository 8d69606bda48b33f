package report

import (
	"encoding/json"
	"strings"
	"testing"

	"engineguard/internal/boundary"
	"engineguard/internal/reftree"
)

func sampleViolations() []boundary.Violation {
	return []boundary.Violation{
		{
			Engine:        "Billing",
			CurrentEngine: "Shipping",
			Tier:          boundary.TierStandard,
			Message:       "Direct access of Billing engine. Only access engine via Billing::Api.",
			Location:      reftree.Location{File: "/project/engines/shipping/app/models/parcel.rb", Line: 12, Column: 5},
		},
		{
			Engine:        "Inventory",
			CurrentEngine: "Shipping",
			Tier:          boundary.TierStrongInbound,
			Message:       "All direct access of Inventory engine disallowed because it is in StronglyProtectedEngines list.",
			Location:      reftree.Location{File: "/project/engines/shipping/app/models/parcel.rb", Line: 20, Column: 3},
		},
	}
}

func TestGenerateSARIFEmpty(t *testing.T) {
	data, err := GenerateSARIF("", nil)
	if err != nil {
		t.Fatalf("GenerateSARIF returned error: %v", err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report.Schema != sarifSchema {
		t.Errorf("$schema = %q, want %q", report.Schema, sarifSchema)
	}
	if report.Version != sarifVersion {
		t.Errorf("version = %q, want %q", report.Version, sarifVersion)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(report.Runs))
	}
	if len(report.Runs[0].Results) != 0 {
		t.Errorf("expected 0 results, got %d", len(report.Runs[0].Results))
	}
	if len(report.Runs[0].Tool.Driver.Rules) != 0 {
		t.Errorf("rules should be empty when there are no findings")
	}
}

func TestGenerateSARIFViolations(t *testing.T) {
	data, err := GenerateSARIF("/project", sampleViolations())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	results := report.Runs[0].Results
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	std := results[0]
	if std.RuleID != ruleIDStandard {
		t.Errorf("ruleId = %q, want %q", std.RuleID, ruleIDStandard)
	}
	if std.Level != "warning" {
		t.Errorf("level = %q, want warning", std.Level)
	}
	if len(std.Locations) == 0 {
		t.Fatal("expected location on result")
	}
	uri := std.Locations[0].PhysicalLocation.ArtifactLocation.URI
	if strings.Contains(uri, "/project") {
		t.Errorf("URI %q should be relative, not absolute", uri)
	}
	if uri != "engines/shipping/app/models/parcel.rb" {
		t.Errorf("URI = %q", uri)
	}
	if std.Locations[0].PhysicalLocation.ArtifactLocation.URIBaseID != "%SRCROOT%" {
		t.Error("uriBaseId should be %SRCROOT%")
	}
	region := std.Locations[0].PhysicalLocation.Region
	if region == nil || region.StartLine != 12 {
		t.Error("expected region.startLine = 12")
	}

	strong := results[1]
	if strong.RuleID != ruleIDStrongInbound || strong.Level != "error" {
		t.Errorf("strong inbound result = %q/%q", strong.RuleID, strong.Level)
	}

	rules := report.Runs[0].Tool.Driver.Rules
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
}

func TestRelativeURI(t *testing.T) {
	cases := []struct {
		root    string
		path    string
		wantURI string
	}{
		{"/project", "/project/engines/billing/invoice.rb", "engines/billing/invoice.rb"},
		{"/project", "/other/bar.rb", "../other/bar.rb"},
		{"", "/abs/path.rb", "/abs/path.rb"},
		{"/project", "relative/path.rb", "relative/path.rb"},
	}
	for _, tc := range cases {
		got := relativeURI(tc.root, tc.path)
		if got != tc.wantURI {
			t.Errorf("relativeURI(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.wantURI)
		}
	}
}

func TestWriteText(t *testing.T) {
	var sb strings.Builder
	if err := WriteText(&sb, "/project", sampleViolations()); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.Contains(out, "engines/shipping/app/models/parcel.rb") {
		t.Errorf("output missing relative file header:\n%s", out)
	}
	if !strings.Contains(out, "12:5") || !strings.Contains(out, "20:3") {
		t.Errorf("output missing line:column markers:\n%s", out)
	}
	if !strings.Contains(out, "2 violation(s): 1 standard, 1 strong inbound, 0 strong outbound") {
		t.Errorf("output missing summary line:\n%s", out)
	}
	if strings.Count(out, "parcel.rb") != 1 {
		t.Errorf("file header must be printed once per file:\n%s", out)
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var sb strings.Builder
	if err := WriteText(&sb, "", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "No boundary violations") {
		t.Errorf("unexpected output: %q", sb.String())
	}
}
