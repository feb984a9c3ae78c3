package drift

import (
	"encoding/json"
	"fmt"
	"os"
)

// SARIF is the subset of SARIF 2.1.0 that verify emits, so plan drift
// shows up in code-scanning dashboards next to other findings.
type SARIF struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun is one verify invocation
type SARIFRun struct {
	Tool    SARIFTool     `json:"tool"`
	Results []SARIFResult `json:"results"`
}

// SARIFTool wraps the agentplan driver
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver names agentplan and the generator version that regenerated
// the plan
type SARIFDriver struct {
	Name           string `json:"name"`
	InformationURI string `json:"informationUri,omitempty"`
	Version        string `json:"version,omitempty"`
}

// SARIFResult is one drifted node; RuleID is the finding code
type SARIFResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations,omitempty"`
}

// SARIFMessage
type SARIFMessage struct {
	Text string `json:"text"`
}

// SARIFLocation pairs the plan file with the node inside it
type SARIFLocation struct {
	PhysicalLocation *SARIFPhysicalLocation `json:"physicalLocation,omitempty"`
	LogicalLocations []SARIFLogicalLocation `json:"logicalLocations,omitempty"`
}

// SARIFLogicalLocation names the plan node a finding refers to
type SARIFLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

// SARIFPhysicalLocation is the saved plan document
type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
}

// SARIFArtifactLocation holds the plan path as given on the command line
type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

// ToSARIF converts a drift report to SARIF format. Every finding points
// at the plan file, with the node in the logical location.
func (r *Report) ToSARIF(toolVersion string) *SARIF {
	return &SARIF{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Runs: []SARIFRun{
			{
				Tool: SARIFTool{
					Driver: SARIFDriver{
						Name:           "agentplan",
						InformationURI: "https://github.com/felixgeelhaar/agentplan",
						Version:        toolVersion,
					},
				},
				Results: sarifResults(r),
			},
		},
	}
}

// Missing and changed nodes are errors, reorders are warnings.
func sarifResults(r *Report) []SARIFResult {
	results := make([]SARIFResult, 0, len(r.Findings))

	for _, finding := range r.Findings {
		level := "warning"
		switch finding.Severity {
		case SeverityError:
			level = "error"
		case SeverityInfo:
			level = "note"
		}

		result := SARIFResult{
			RuleID: finding.Code,
			Level:  level,
			Message: SARIFMessage{
				Text: finding.Message,
			},
		}

		if r.Path != "" || finding.Location != "" {
			loc := SARIFLocation{}
			if r.Path != "" {
				loc.PhysicalLocation = &SARIFPhysicalLocation{
					ArtifactLocation: SARIFArtifactLocation{URI: r.Path},
				}
			}
			if finding.Location != "" {
				loc.LogicalLocations = []SARIFLogicalLocation{{FullyQualifiedName: finding.Location}}
			}
			result.Locations = []SARIFLocation{loc}
		}

		results = append(results, result)
	}

	return results
}

// MarshalSARIF encodes a SARIF report with two-space indentation
func MarshalSARIF(sarif *SARIF) ([]byte, error) {
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal SARIF: %w", err)
	}
	return data, nil
}

// SaveSARIF writes the report for verify --sarif
func SaveSARIF(sarif *SARIF, path string) error {
	data, err := MarshalSARIF(sarif)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write SARIF file: %w", err)
	}

	return nil
}
