package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/civicassist/civicassist/internal/domain"
)

// Renderer produces the printable compliance report an applicant or
// officer downloads for a saved application.
type Renderer struct{}

// NewRenderer creates a PDF renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces a PDF document for the saved application.
func (r *Renderer) Render(app domain.SavedApplication) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Compliance Analysis Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Application %s", app.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Submitted %s", app.SubmittedAt.Format("2006-01-02 15:04 MST")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	r.sectionHeader(pdf, "Application Details")
	r.fieldRow(pdf, "Industry Name", app.Application.IndustryName)
	r.fieldRow(pdf, "Square Feet", app.Application.SquareFeet)
	r.fieldRow(pdf, "Water Source", app.Application.WaterSource)
	r.fieldRow(pdf, "Drainage", app.Application.Drainage)
	r.fieldRow(pdf, "Air Pollution", app.Application.AirPollution)
	r.fieldRow(pdf, "Waste Management", app.Application.WasteManagement)
	r.fieldRow(pdf, "Nearby Homes", app.Application.NearbyHomes)
	r.fieldRow(pdf, "Water Level Depth", app.Application.WaterLevelDepth)
	pdf.Ln(4)

	r.sectionHeader(pdf, "Analysis Outcome")
	r.fieldRow(pdf, "Status", statusLabel(app.ComplianceReport.Status))
	r.fieldRow(pdf, "Confidence", fmt.Sprintf("%.0f%%", app.ComplianceReport.ConfidenceScore*100))
	r.fieldRow(pdf, "Regulation Coverage", fmt.Sprintf("%.0f%%", app.ComplianceReport.RegulationCoverage*100))
	r.fieldRow(pdf, "Workflow State", statusLabel(app.Status))
	pdf.Ln(4)

	if len(app.ComplianceReport.Issues) > 0 {
		r.sectionHeader(pdf, fmt.Sprintf("Issues (%d)", len(app.ComplianceReport.Issues)))
		for i, issue := range app.ComplianceReport.Issues {
			pdf.SetFont("Arial", "B", 9)
			heading := fmt.Sprintf("%d. [%s] %s", i+1, strings.ToUpper(issue.Severity), statusLabel(issue.IssueType))
			pdf.MultiCell(0, 5, heading, "", "L", false)
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, issue.Description, "", "L", false)
			if issue.RegulationReference != "" {
				pdf.SetFont("Arial", "I", 8)
				pdf.MultiCell(0, 4, "Reference: "+issue.RegulationReference, "", "L", false)
				pdf.SetFont("Arial", "", 9)
			}
			if override, ok := app.IssueOverrides[fmt.Sprintf("%d", i)]; ok {
				pdf.SetFont("Arial", "I", 8)
				pdf.MultiCell(0, 4, "Officer override: "+override, "", "L", false)
				pdf.SetFont("Arial", "", 9)
			}
			pdf.Ln(2)
		}
	}

	if len(app.ComplianceReport.MissingDocuments) > 0 {
		r.sectionHeader(pdf, "Missing Documents")
		r.bulletList(pdf, app.ComplianceReport.MissingDocuments)
		pdf.Ln(2)
	}

	if len(app.ComplianceReport.Recommendations) > 0 {
		r.sectionHeader(pdf, "Recommendations")
		r.bulletList(pdf, app.ComplianceReport.Recommendations)
		pdf.Ln(2)
	}

	if app.OfficerAction != "" {
		r.sectionHeader(pdf, "Officer Decision")
		r.fieldRow(pdf, "Action", statusLabel(app.OfficerAction))
		if app.OfficerNotes != "" {
			r.fieldRow(pdf, "Notes", app.OfficerNotes)
		}
		if app.RejectionReason != "" {
			r.fieldRow(pdf, "Rejection Reason", app.RejectionReason)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) sectionHeader(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 7, title, "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.Ln(1)
}

func (r *Renderer) fieldRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(45, 5, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, value, "", "L", false)
}

func (r *Renderer) bulletList(pdf *fpdf.Fpdf, items []string) {
	for _, item := range items {
		pdf.CellFormat(5, 5, "-", "", 0, "L", false, 0, "")
		pdf.MultiCell(0, 5, item, "", "L", false)
	}
}

// statusLabel renders a snake_case enum value as a human label.
func statusLabel(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
