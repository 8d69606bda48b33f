package report

import (
	"encoding/json"
	"path/filepath"

	"engineguard/internal/boundary"
	"engineguard/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDStandard       = "ENG001"
	ruleIDStrongInbound  = "ENG002"
	ruleIDStrongOutbound = "ENG003"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from boundary violations.
// All file URIs are made relative to projectRoot; absolute paths are never
// included so that reports are safe to share.
func GenerateSARIF(projectRoot string, violations []boundary.Violation) ([]byte, error) {
	results := make([]sarifResult, 0, len(violations))
	for _, v := range violations {
		result := sarifResult{
			RuleID:  tierRuleID(v.Tier),
			Level:   tierLevel(v.Tier),
			Message: sarifMessage{Text: v.Message},
		}
		if v.Location.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(projectRoot, v.Location.File),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if v.Location.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{
					StartLine:   v.Location.Line,
					StartColumn: v.Location.Column,
				}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "engineguard",
						Version: version.Version,
						Rules:   buildSARIFRules(violations),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules relevant for the given findings.
func buildSARIFRules(violations []boundary.Violation) []sarifRule {
	present := make(map[boundary.Tier]bool)
	for _, v := range violations {
		present[v.Tier] = true
	}

	rules := make([]sarifRule, 0, 3)
	if present[boundary.TierStandard] {
		rules = append(rules, sarifRule{
			ID:               ruleIDStandard,
			Name:             "DirectEngineAccess",
			ShortDescription: sarifMessage{Text: "A protected engine was accessed outside its Api namespace."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	if present[boundary.TierStrongInbound] {
		rules = append(rules, sarifRule{
			ID:               ruleIDStrongInbound,
			Name:             "StronglyProtectedEngineAccess",
			ShortDescription: sarifMessage{Text: "A strongly protected engine was accessed from outside."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	if present[boundary.TierStrongOutbound] {
		rules = append(rules, sarifRule{
			ID:               ruleIDStrongOutbound,
			Name:             "StronglyProtectedEngineOutboundAccess",
			ShortDescription: sarifMessage{Text: "Code inside a strongly protected engine referenced another engine."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	return rules
}

func tierRuleID(tier boundary.Tier) string {
	switch tier {
	case boundary.TierStrongInbound:
		return ruleIDStrongInbound
	case boundary.TierStrongOutbound:
		return ruleIDStrongOutbound
	default:
		return ruleIDStandard
	}
}

func tierLevel(tier boundary.Tier) string {
	if tier == boundary.TierStandard {
		return "warning"
	}
	return "error"
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		if rel, err := filepath.Rel(projectRoot, filePath); err == nil {
			filePath = rel
		}
	}
	// SARIF URIs use forward slashes.
	return filepath.ToSlash(filePath)
}
