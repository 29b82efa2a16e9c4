package domain

import "time"

// Compliance status values a report may carry.
const (
	StatusCompliant          = "compliant"
	StatusPartiallyCompliant = "partially_compliant"
	StatusNonCompliant       = "non_compliant"
	StatusNeedsHumanReview   = "needs_human_review"
)

// Issue types produced while converting raw model output.
const (
	IssueMissingDocument = "missing_document"
	IssueViolation       = "violation"
	IssueAmbiguity       = "ambiguity"
	IssueRecommendation  = "recommendation"
)

// Severity levels for compliance issues.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ValidStatus reports whether s is one of the four accepted status literals.
func ValidStatus(s string) bool {
	switch s {
	case StatusCompliant, StatusPartiallyCompliant, StatusNonCompliant, StatusNeedsHumanReview:
		return true
	}
	return false
}

// ComplianceIssue is a single finding with traceability to its regulation.
type ComplianceIssue struct {
	IssueType           string `json:"issue_type"`
	Severity            string `json:"severity"`
	Description         string `json:"description"`
	RegulationReference string `json:"regulation_reference,omitempty"`
	Department          string `json:"department,omitempty"`
}

// ComplianceReport is the structured result of one analysis call. Created
// exactly once per call and never mutated; re-analysis produces a new report.
type ComplianceReport struct {
	ApplicationID      string            `json:"application_id,omitempty"`
	Status             string            `json:"status"`
	ConfidenceScore    float64           `json:"confidence_score"`
	Issues             []ComplianceIssue `json:"issues"`
	MissingDocuments   []string          `json:"missing_documents"`
	Recommendations    []string          `json:"recommendations"`
	RegulationCoverage float64           `json:"regulation_coverage"`
	GeneratedAt        time.Time         `json:"generated_at"`
}

// ClampScore rescales a 0-100 model score into [0,1] and clamps the result.
func ClampScore(percent float64) float64 {
	v := percent / 100.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
