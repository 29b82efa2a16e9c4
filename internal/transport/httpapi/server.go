package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

// Error response codes returned to clients.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeUnsupported      = "unsupported_format"
	codeExtraction       = "extraction_failed"
	codeUnavailable      = "service_unavailable"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the HTTP API to the use case services.
type Server struct {
	compliance   ComplianceService
	applications ApplicationStore
	chat         ChatService
	search       SearchService
	ingest       IngestService
	regulations  RegulationIndex
	health       HealthService
	stats        StatsProvider
	report       ReportRenderer

	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	compliance ComplianceService,
	applications ApplicationStore,
	chat ChatService,
	search SearchService,
	ingest IngestService,
	regulations RegulationIndex,
	health HealthService,
	stats StatsProvider,
	report ReportRenderer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		compliance:   compliance,
		applications: applications,
		chat:         chat,
		search:       search,
		ingest:       ingest,
		regulations:  regulations,
		health:       health,
		stats:        stats,
		report:       report,
		validate:     validator.New(),
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusBadRequest, codeUnsupported),
		sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity, codeExtraction),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrShapeMismatch, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrNotInitialized, http.StatusServiceUnavailable, codeUnavailable),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, codeUnavailable),
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrUnsupportedFormat,
		domain.ErrExtraction,
		domain.ErrVectorDimMismatch,
		domain.ErrShapeMismatch,
		domain.ErrNotInitialized,
		domain.ErrModelUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
