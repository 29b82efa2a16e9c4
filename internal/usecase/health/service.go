package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Chunks int
}

// Service coordinates health checks.
type Service struct {
	index     IndexCounter
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(index IndexCounter, embedding EmbeddingChecker) *Service {
	return &Service{index: index, embedding: embedding}
}

// Check runs health checks against all components. The vector index check
// doubles as a chunk count for operators watching ingestion progress.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	var chunks int
	if n, err := s.index.Count(ctx); err != nil {
		checks["vector_index"] = CheckError
	} else {
		checks["vector_index"] = CheckOK
		chunks = n
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Chunks: chunks}
}
