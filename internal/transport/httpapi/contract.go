package httpapi

import (
	"context"

	"github.com/civicassist/civicassist/internal/domain"
	"github.com/civicassist/civicassist/internal/usecase/health"
	"github.com/civicassist/civicassist/internal/usecase/ingest"
	"github.com/civicassist/civicassist/internal/usecase/llm"
	"github.com/civicassist/civicassist/internal/usecase/search"
)

// ComplianceService runs the analysis pipeline.
type ComplianceService interface {
	Analyze(ctx context.Context, fields map[string]string) domain.ComplianceReport
}

// ApplicationStore persists applications and officer decisions.
type ApplicationStore interface {
	Submit(ctx context.Context, app domain.IndustrialApplication, report domain.ComplianceReport, timeSavedSeconds float64) (domain.SavedApplication, error)
	List(ctx context.Context) ([]domain.SavedApplication, error)
	Get(ctx context.Context, id string) (domain.SavedApplication, error)
	Review(ctx context.Context, id string, review domain.OfficerReview) (domain.SavedApplication, error)
	UpdateOverrides(ctx context.Context, id string, overrides map[string]string) (domain.SavedApplication, error)
	Delete(ctx context.Context, id string) error
}

// ChatService answers free-form compliance questions.
type ChatService interface {
	Respond(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// SearchService serves direct semantic search.
type SearchService interface {
	Search(ctx context.Context, query, department string, k int) ([]search.Result, error)
}

// IngestService ingests regulation documents.
type IngestService interface {
	IngestDocument(ctx context.Context, path string, opts ingest.DocumentOptions) (int, error)
	IngestDirectory(ctx context.Context, root string) (ingest.Stats, error)
}

// RegulationIndex exposes index maintenance operations.
type RegulationIndex interface {
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) health.Report
}

// StatsProvider reports per-tier model call counters.
type StatsProvider interface {
	GetStats() llm.Stats
}

// ReportRenderer produces the downloadable PDF report.
type ReportRenderer interface {
	Render(app domain.SavedApplication) ([]byte, error)
}
