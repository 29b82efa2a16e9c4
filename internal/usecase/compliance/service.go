package compliance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
	"github.com/civicassist/civicassist/internal/metrics"
)

// queryFields are the application fields folded into the retrieval query,
// in order. Remaining fields only reach the model prompt.
var queryFields = []string{"industry_name", "water_source", "waste_management", "air_pollution"}

const querySuffix = "Requirements for fire safety, environmental clearance, building standards."

// Service is the compliance orchestrator. One Analyze call runs the whole
// pipeline: query building, embedding, retrieval, model analysis, and
// normalization into a ComplianceReport. The call never raises; every
// failure degrades to a needs_human_review report.
type Service struct {
	embedder  Embedder
	retriever Retriever
	generator AnalysisGenerator
	topK      int
	promptK   int
	logger    *zap.Logger
}

// New creates the orchestrator. topK bounds retrieval; promptK bounds how
// many retrieved chunks reach the model prompt.
func New(
	embedder Embedder, retriever Retriever, generator AnalysisGenerator,
	topK, promptK int, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = 10
	}
	if promptK <= 0 || promptK > topK {
		promptK = topK
	}
	return &Service{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		topK:      topK,
		promptK:   promptK,
		logger:    logger,
	}
}

// Analyze runs a full compliance analysis over the application fields.
// It always returns a usable report: any pipeline failure produces the
// human-review fallback instead of an error.
func (s *Service) Analyze(ctx context.Context, fields map[string]string) domain.ComplianceReport {
	query := buildQuery(fields)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Error("query embedding failed", zap.Error(err))
		metrics.AnalysesTotal.WithLabelValues("fallback").Inc()
		return s.fallbackReport(fmt.Sprintf("Embedding service unavailable: %v", err))
	}

	hits, err := s.retriever.Query(ctx, embedding.Embedding, s.topK, nil)
	if err != nil {
		s.logger.Error("regulation retrieval failed", zap.Error(err))
		metrics.AnalysesTotal.WithLabelValues("fallback").Inc()
		return s.fallbackReport(fmt.Sprintf("Regulation retrieval failed: %v", err))
	}
	if len(hits) == 0 {
		s.logger.Warn("no regulations retrieved, skipping model call")
		metrics.AnalysesTotal.WithLabelValues("fallback").Inc()
		return s.fallbackReport("No relevant regulations found in database")
	}

	regulations := make([]string, 0, s.promptK)
	for _, hit := range hits {
		if len(regulations) == s.promptK {
			break
		}
		regulations = append(regulations, hit.Text)
	}

	analysis := s.generator.GenerateAnalysis(ctx, fields, regulations)
	report := normalizeAnalysis(analysis)

	metrics.AnalysesTotal.WithLabelValues(report.Status).Inc()
	s.logger.Info("analysis complete",
		zap.String("status", report.Status),
		zap.Float64("confidence", report.ConfidenceScore),
		zap.Int("issues", len(report.Issues)),
		zap.Int("regulations_used", len(regulations)),
	)
	return report
}

// buildQuery folds the retrieval-relevant fields into one query string in
// a fixed order so identical applications retrieve identical chunks.
func buildQuery(fields map[string]string) string {
	var parts []string
	for _, key := range queryFields {
		if v := strings.TrimSpace(fields[key]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v := strings.TrimSpace(fields[k]); v != "" {
				parts = append(parts, v)
			}
		}
	}
	parts = append(parts, querySuffix)
	return strings.Join(parts, " ")
}

// normalizeAnalysis converts a schema-valid model analysis into the report
// shape the rest of the system consumes. Model-side 0-100 scores become
// [0,1]; unknown enum values degrade to conservative defaults instead of
// rejecting the reply.
func normalizeAnalysis(a domain.Analysis) domain.ComplianceReport {
	report := domain.ComplianceReport{
		Status:             a.OverallStatus,
		ConfidenceScore:    domain.ClampScore(a.ConfidenceScore),
		Issues:             make([]domain.ComplianceIssue, 0, len(a.Issues)),
		MissingDocuments:   []string{},
		Recommendations:    append([]string{}, a.Checklist...),
		RegulationCoverage: domain.ClampScore(a.RegulationCoveragePercent),
		GeneratedAt:        time.Now().UTC(),
	}

	for _, raw := range a.Issues {
		issue := domain.ComplianceIssue{
			IssueType:   normalizeIssueType(raw.Type),
			Severity:    normalizeSeverity(raw.RiskLevel),
			Description: raw.Explanation,
			Department:  raw.Department,
		}
		if issue.Description == "" {
			issue.Description = raw.DocumentExcerpt
		}
		if issue.Department == "" {
			issue.Department = "other"
		}
		if raw.RegulationReference.Name != "" {
			issue.RegulationReference = raw.RegulationReference.Name
			if raw.RegulationReference.Clause != "" {
				issue.RegulationReference += ", " + raw.RegulationReference.Clause
			}
		}
		report.Issues = append(report.Issues, issue)

		if issue.IssueType == domain.IssueMissingDocument {
			report.MissingDocuments = append(report.MissingDocuments, issue.Description)
		}
	}

	return report
}

func normalizeIssueType(t string) string {
	switch t {
	case domain.IssueMissingDocument, domain.IssueViolation,
		domain.IssueAmbiguity, domain.IssueRecommendation:
		return t
	}
	return domain.IssueAmbiguity
}

func normalizeSeverity(s string) string {
	switch s {
	case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
		return s
	}
	return domain.SeverityMedium
}

// fallbackReport is the report returned when the pipeline fails before or
// during analysis. It always flags human review.
func (s *Service) fallbackReport(reason string) domain.ComplianceReport {
	return domain.ComplianceReport{
		Status:          domain.StatusNeedsHumanReview,
		ConfidenceScore: 0,
		Issues: []domain.ComplianceIssue{{
			IssueType:   domain.IssueAmbiguity,
			Severity:    domain.SeverityHigh,
			Description: reason,
			Department:  "other",
		}},
		MissingDocuments: []string{"Manual review required"},
		Recommendations:  []string{"Submit application for manual review by compliance officer"},
		GeneratedAt:      time.Now().UTC(),
	}
}
