package applications

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

// Store persists submitted applications with their compliance reports.
// Unlike a flat JSON file, every write is an atomic per-record upsert,
// so concurrent officer actions on different applications cannot clobber
// each other.
type Store struct {
	db     *badgerhold.Store
	logger *zap.Logger
}

// Open opens (or creates) the application store at the given path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create application store directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open application store at %s: %w", path, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close application store: %w", err)
	}
	return nil
}

// Submit saves a new application with its compliance report and returns
// the stored record.
func (s *Store) Submit(
	ctx context.Context,
	app domain.IndustrialApplication,
	report domain.ComplianceReport,
	timeSavedSeconds float64,
) (domain.SavedApplication, error) {
	saved := domain.SavedApplication{
		ID:               uuid.NewString(),
		SubmittedAt:      time.Now().UTC(),
		Status:           domain.AppStatusSubmitted,
		Application:      app,
		ComplianceReport: report,
		TimeSavedSeconds: timeSavedSeconds,
	}

	if err := s.db.Insert(saved.ID, &saved); err != nil {
		return domain.SavedApplication{}, fmt.Errorf("insert application: %w", err)
	}

	s.logger.Info("application submitted",
		zap.String("id", saved.ID),
		zap.String("industry", app.IndustryName),
		zap.String("report_status", report.Status),
	)
	return saved, nil
}

// List returns all applications, newest first.
func (s *Store) List(ctx context.Context) ([]domain.SavedApplication, error) {
	var apps []domain.SavedApplication
	if err := s.db.Find(&apps, (&badgerhold.Query{}).SortBy("SubmittedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// Get returns a single application by ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.SavedApplication, error) {
	var app domain.SavedApplication
	if err := s.db.Get(id, &app); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.SavedApplication{}, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
		}
		return domain.SavedApplication{}, fmt.Errorf("get application %s: %w", id, err)
	}
	return app, nil
}

// Review applies an officer decision and transitions the workflow status.
func (s *Store) Review(ctx context.Context, id string, review domain.OfficerReview) (domain.SavedApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return domain.SavedApplication{}, err
	}

	switch review.Action {
	case domain.ReviewApprove:
		app.Status = domain.AppStatusApproved
	case domain.ReviewReject:
		app.Status = domain.AppStatusRejected
	default:
		app.Status = domain.AppStatusUnderReview
	}
	app.OfficerAction = review.Action
	app.OfficerNotes = review.Notes
	app.RejectionReason = review.RejectionReason

	if err := s.db.Update(id, &app); err != nil {
		return domain.SavedApplication{}, fmt.Errorf("update application %s: %w", id, err)
	}

	s.logger.Info("application reviewed",
		zap.String("id", id),
		zap.String("action", review.Action),
		zap.String("status", app.Status),
	)
	return app, nil
}

// UpdateOverrides replaces the per-issue override decisions.
func (s *Store) UpdateOverrides(ctx context.Context, id string, overrides map[string]string) (domain.SavedApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return domain.SavedApplication{}, err
	}

	app.IssueOverrides = overrides
	if err := s.db.Update(id, &app); err != nil {
		return domain.SavedApplication{}, fmt.Errorf("update overrides %s: %w", id, err)
	}
	return app, nil
}

// Delete removes an application. Deleting a missing ID returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(id, &domain.SavedApplication{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete application %s: %w", id, err)
	}
	return nil
}
