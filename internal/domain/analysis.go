package domain

import (
	"encoding/json"
	"fmt"
)

// RegulationRef names the regulation and clause an issue cites.
type RegulationRef struct {
	Name   string `json:"name"`
	Clause string `json:"clause"`
}

// RawIssue is one issue exactly as the model emits it (0-100 scales,
// model-side field names).
type RawIssue struct {
	Type                string        `json:"type"`
	RiskLevel           string        `json:"risk_level"`
	Department          string        `json:"department"`
	RegulationReference RegulationRef `json:"regulation_reference"`
	DocumentExcerpt     string        `json:"document_excerpt"`
	Explanation         string        `json:"explanation"`
}

// Analysis is the schema-checked shape of a model reply. The gateway only
// ever hands schema-valid values of this type to the orchestrator.
type Analysis struct {
	OverallStatus             string     `json:"overall_status"`
	ConfidenceScore           float64    `json:"confidence_score"`
	TimeSavedMinutes          float64    `json:"time_saved_minutes"`
	RegulationCoveragePercent float64    `json:"regulation_coverage_percent"`
	Issues                    []RawIssue `json:"issues"`
	Checklist                 []string   `json:"checklist"`
}

// ParseAnalysis parses and schema-checks a raw model reply. It is a pure
// function: a missing required field or an invalid status literal returns
// ErrSchemaViolation so escalation logic can inspect the failure without
// control-flow overhead.
func ParseAnalysis(data []byte) (Analysis, error) {
	var raw struct {
		OverallStatus             *string     `json:"overall_status"`
		ConfidenceScore           *float64    `json:"confidence_score"`
		TimeSavedMinutes          float64     `json:"time_saved_minutes"`
		RegulationCoveragePercent float64     `json:"regulation_coverage_percent"`
		Issues                    *[]RawIssue `json:"issues"`
		Checklist                 *[]string   `json:"checklist"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Analysis{}, fmt.Errorf("parse model reply: %w: %w", ErrSchemaViolation, err)
	}

	switch {
	case raw.OverallStatus == nil:
		return Analysis{}, fmt.Errorf("%w: missing overall_status", ErrSchemaViolation)
	case raw.ConfidenceScore == nil:
		return Analysis{}, fmt.Errorf("%w: missing confidence_score", ErrSchemaViolation)
	case raw.Issues == nil:
		return Analysis{}, fmt.Errorf("%w: missing issues", ErrSchemaViolation)
	case raw.Checklist == nil:
		return Analysis{}, fmt.Errorf("%w: missing checklist", ErrSchemaViolation)
	}

	if !ValidStatus(*raw.OverallStatus) {
		return Analysis{}, fmt.Errorf("%w: invalid overall_status %q", ErrSchemaViolation, *raw.OverallStatus)
	}

	return Analysis{
		OverallStatus:             *raw.OverallStatus,
		ConfidenceScore:           *raw.ConfidenceScore,
		TimeSavedMinutes:          raw.TimeSavedMinutes,
		RegulationCoveragePercent: raw.RegulationCoveragePercent,
		Issues:                    *raw.Issues,
		Checklist:                 *raw.Checklist,
	}, nil
}

// SafeDefaultAnalysis is the fixed response returned when every model tier
// fails. It always flags human review.
func SafeDefaultAnalysis() Analysis {
	return Analysis{
		OverallStatus:   StatusNeedsHumanReview,
		ConfidenceScore: 0,
		Issues: []RawIssue{{
			Type:       IssueAmbiguity,
			RiskLevel:  SeverityHigh,
			Department: "other",
			RegulationReference: RegulationRef{
				Name:   "System Error",
				Clause: "N/A",
			},
			Explanation: "Automated analysis unavailable. All AI services failed. Manual review required.",
		}},
		Checklist: []string{"Submit application for manual review by compliance officer"},
	}
}
