package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testApplication() domain.IndustrialApplication {
	return domain.IndustrialApplication{
		IndustryName:    "Textile dyeing unit",
		SquareFeet:      "12000",
		WaterSource:     "Borewell",
		Drainage:        "Closed drainage",
		AirPollution:    "Scrubbers installed",
		WasteManagement: "Effluent treatment plant",
		NearbyHomes:     "500m away",
		WaterLevelDepth: "40ft",
	}
}

func testReport() domain.ComplianceReport {
	return domain.ComplianceReport{
		Status:          domain.StatusPartiallyCompliant,
		ConfidenceScore: 0.8,
		Issues: []domain.ComplianceIssue{{
			IssueType:   domain.IssueViolation,
			Severity:    domain.SeverityHigh,
			Description: "Only one exit declared.",
		}},
		MissingDocuments: []string{},
		Recommendations:  []string{"Add second exit"},
		GeneratedAt:      time.Now().UTC(),
	}
}

func TestSubmitAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.Submit(ctx, testApplication(), testReport(), 1700)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("submit must assign an ID")
	}
	if saved.Status != domain.AppStatusSubmitted {
		t.Errorf("status = %q", saved.Status)
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Application.IndustryName != "Textile dyeing unit" {
		t.Errorf("application = %+v", got.Application)
	}
	if got.ComplianceReport.Status != domain.StatusPartiallyCompliant {
		t.Errorf("report status = %q", got.ComplianceReport.Status)
	}
	if got.TimeSavedSeconds != 1700 {
		t.Errorf("time saved = %f", got.TimeSavedSeconds)
	}
}

func TestGet_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Submit(ctx, testApplication(), testReport(), 0)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := store.Submit(ctx, testApplication(), testReport(), 0)
	if err != nil {
		t.Fatal(err)
	}

	apps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(apps))
	}
	if apps[0].ID != second.ID || apps[1].ID != first.ID {
		t.Errorf("not sorted newest first: %s, %s", apps[0].ID, apps[1].ID)
	}
}

func TestReview(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.Submit(ctx, testApplication(), testReport(), 0)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		action     string
		wantStatus string
	}{
		{domain.ReviewApprove, domain.AppStatusApproved},
		{domain.ReviewReject, domain.AppStatusRejected},
		{domain.ReviewHold, domain.AppStatusUnderReview},
	}
	for _, tc := range cases {
		app, err := store.Review(ctx, saved.ID, domain.OfficerReview{
			Action: tc.action,
			Notes:  "checked",
		})
		if err != nil {
			t.Fatalf("Review(%s) failed: %v", tc.action, err)
		}
		if app.Status != tc.wantStatus {
			t.Errorf("Review(%s): status = %q, expected %q", tc.action, app.Status, tc.wantStatus)
		}
		if app.OfficerNotes != "checked" {
			t.Errorf("notes = %q", app.OfficerNotes)
		}
	}
}

func TestReview_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Review(context.Background(), "nope", domain.OfficerReview{Action: domain.ReviewApprove})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateOverrides(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.Submit(ctx, testApplication(), testReport(), 0)
	if err != nil {
		t.Fatal(err)
	}

	app, err := store.UpdateOverrides(ctx, saved.ID, map[string]string{"0": "accepted"})
	if err != nil {
		t.Fatalf("UpdateOverrides failed: %v", err)
	}
	if app.IssueOverrides["0"] != "accepted" {
		t.Errorf("overrides = %v", app.IssueOverrides)
	}

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IssueOverrides["0"] != "accepted" {
		t.Errorf("overrides not persisted: %v", got.IssueOverrides)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.Submit(ctx, testApplication(), testReport(), 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, saved.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := store.Delete(ctx, saved.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}
