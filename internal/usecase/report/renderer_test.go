package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/civicassist/civicassist/internal/domain"
)

func sampleApplication() domain.SavedApplication {
	return domain.SavedApplication{
		ID:          "app-123",
		SubmittedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Status:      domain.AppStatusUnderReview,
		Application: domain.IndustrialApplication{
			IndustryName:    "Textile dyeing unit",
			SquareFeet:      "12000",
			WaterSource:     "Borewell",
			Drainage:        "Closed drainage",
			AirPollution:    "Scrubbers installed",
			WasteManagement: "Effluent treatment plant",
			NearbyHomes:     "500m away",
			WaterLevelDepth: "40ft",
		},
		ComplianceReport: domain.ComplianceReport{
			Status:          domain.StatusPartiallyCompliant,
			ConfidenceScore: 0.8,
			Issues: []domain.ComplianceIssue{{
				IssueType:           domain.IssueViolation,
				Severity:            domain.SeverityHigh,
				Description:         "Only one emergency exit declared.",
				RegulationReference: "Fire Safety Act, 12.3",
			}},
			MissingDocuments: []string{"Fire NOC"},
			Recommendations:  []string{"Add a second emergency exit"},
			GeneratedAt:      time.Date(2025, 6, 1, 10, 0, 5, 0, time.UTC),
		},
		OfficerAction:  domain.ReviewHold,
		OfficerNotes:   "Pending site inspection",
		IssueOverrides: map[string]string{"0": "accepted"},
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer()

	pdf, err := r.Render(sampleApplication())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if len(pdf) == 0 {
		t.Fatal("empty PDF output")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not start with PDF magic: %q", pdf[:8])
	}
}

func TestRender_MinimalApplication(t *testing.T) {
	r := NewRenderer()

	app := domain.SavedApplication{
		ID:          "bare",
		SubmittedAt: time.Now().UTC(),
		Status:      domain.AppStatusSubmitted,
		ComplianceReport: domain.ComplianceReport{
			Status: domain.StatusNeedsHumanReview,
		},
	}

	pdf, err := r.Render(app)
	if err != nil {
		t.Fatalf("Render failed for minimal application: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("empty PDF output")
	}
}

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"needs_human_review", "Needs Human Review"},
		{"compliant", "Compliant"},
		{"under_review", "Under Review"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := statusLabel(tc.in); got != tc.want {
			t.Errorf("statusLabel(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}
