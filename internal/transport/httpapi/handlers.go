package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
	"github.com/civicassist/civicassist/internal/usecase/health"
	"github.com/civicassist/civicassist/internal/usecase/ingest"
	"github.com/civicassist/civicassist/internal/version"
)

// manualReviewBaseline is the assumed duration of a fully manual
// compliance review, used to estimate officer time saved per submission.
const manualReviewBaseline = 30 * time.Minute

// HealthCheck handles GET /api/v1/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
		"chunks": report.Chunks,
	})
}

// Version handles GET /api/v1/version.
func (s *Server) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

// Stats handles GET /api/v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}

// AnalyzeCompliance handles POST /api/v1/compliance/analyze. It runs the
// analysis pipeline without persisting anything.
func (s *Server) AnalyzeCompliance(w http.ResponseWriter, r *http.Request) {
	var app domain.IndustrialApplication
	if !s.decodeAndValidate(w, r, &app) {
		return
	}

	report := s.compliance.Analyze(r.Context(), app.Fields())
	writeJSON(w, http.StatusOK, report)
}

// SubmitApplication handles POST /api/v1/applications. The application is
// analyzed and persisted with its report in one step.
func (s *Server) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var app domain.IndustrialApplication
	if !s.decodeAndValidate(w, r, &app) {
		return
	}

	start := time.Now()
	report := s.compliance.Analyze(r.Context(), app.Fields())
	timeSaved := (manualReviewBaseline - time.Since(start)).Seconds()
	if timeSaved < 0 {
		timeSaved = 0
	}

	saved, err := s.applications.Submit(r.Context(), app, report, timeSaved)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

// ListApplications handles GET /api/v1/applications.
func (s *Server) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if apps == nil {
		apps = []domain.SavedApplication{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": apps,
		"total": len(apps),
	})
}

// GetApplication handles GET /api/v1/applications/{id}.
func (s *Server) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// DeleteApplication handles DELETE /api/v1/applications/{id}.
func (s *Server) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.applications.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReviewApplication handles POST /api/v1/applications/{id}/review.
func (s *Server) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	var review domain.OfficerReview
	if !s.decodeAndValidate(w, r, &review) {
		return
	}

	app, err := s.applications.Review(r.Context(), chi.URLParam(r, "id"), review)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// UpdateOverrides handles PUT /api/v1/applications/{id}/overrides.
func (s *Server) UpdateOverrides(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Overrides map[string]string `json:"overrides"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	app, err := s.applications.UpdateOverrides(r.Context(), chi.URLParam(r, "id"), req.Overrides)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// ApplicationReportPDF handles GET /api/v1/applications/{id}/report.pdf.
func (s *Server) ApplicationReportPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, err := s.applications.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	pdf, err := s.report.Render(app)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "compliance_report_"+id+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// Chat handles POST /api/v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []domain.ChatMessage `json:"messages" validate:"required,min=1,dive"`
	}
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	reply, err := s.chat.Respond(r.Context(), req.Messages)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// IngestRegulations handles POST /api/v1/regulations/ingest. When path is
// a directory the whole tree is ingested; a single file takes the optional
// provenance overrides.
func (s *Server) IngestRegulations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path           string `json:"path" validate:"required"`
		RegulationName string `json:"regulation_name"`
		Department     string `json:"department"`
		ClauseID       string `json:"clause_id"`
	}
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "path not accessible: "+req.Path)
		return
	}

	if info.IsDir() {
		stats, err := s.ingest.IngestDirectory(r.Context(), req.Path)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}

	chunks, err := s.ingest.IngestDocument(r.Context(), req.Path, ingest.DocumentOptions{
		RegulationName: req.RegulationName,
		Department:     req.Department,
		ClauseID:       req.ClauseID,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"chunks": chunks})
}

// SearchRegulations handles GET /api/v1/regulations/search.
func (s *Server) SearchRegulations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	department := r.URL.Query().Get("department")

	k := 5
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "k must be an integer")
			return
		}
		k = parsed
	}

	results, err := s.search.Search(r.Context(), query, department, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": results,
		"total": len(results),
	})
}

// CountRegulations handles GET /api/v1/regulations/count.
func (s *Server) CountRegulations(w http.ResponseWriter, r *http.Request) {
	count, err := s.regulations.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// DeleteRegulations handles DELETE /api/v1/regulations.
func (s *Server) DeleteRegulations(w http.ResponseWriter, r *http.Request) {
	if err := s.regulations.DeleteAll(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.logger.Warn("regulation index cleared")
	w.WriteHeader(http.StatusNoContent)
}

// decodeAndValidate decodes the JSON body into v and runs struct
// validation. It writes the error response itself and reports success.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		msg := "validation failed"
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = fmt.Sprintf("field %s failed on %s", verrs[0].Field(), verrs[0].Tag())
		}
		s.logger.Debug("request validation failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
		return false
	}
	return true
}
