package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.HealthCheck)
		r.Get("/version", s.Version)
		r.Get("/stats", s.Stats)

		r.Post("/compliance/analyze", s.AnalyzeCompliance)
		r.Post("/chat", s.Chat)

		r.Route("/regulations", func(r chi.Router) {
			r.Post("/ingest", s.IngestRegulations)
			r.Get("/search", s.SearchRegulations)
			r.Get("/count", s.CountRegulations)
			r.Delete("/", s.DeleteRegulations)
		})

		r.Route("/applications", func(r chi.Router) {
			r.Post("/", s.SubmitApplication)
			r.Get("/", s.ListApplications)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetApplication)
				r.Delete("/", s.DeleteApplication)
				r.Post("/review", s.ReviewApplication)
				r.Put("/overrides", s.UpdateOverrides)
				r.Get("/report.pdf", s.ApplicationReportPDF)
			})
		})
	})
}
