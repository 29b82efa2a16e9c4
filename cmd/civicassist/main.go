package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/config"
	logpkg "github.com/civicassist/civicassist/internal/logger"
	"github.com/civicassist/civicassist/internal/metrics"
	applicationsrepo "github.com/civicassist/civicassist/internal/repository/applications"
	"github.com/civicassist/civicassist/internal/repository/vectorstore"
	"github.com/civicassist/civicassist/internal/transport/httpapi"
	llmclient "github.com/civicassist/civicassist/internal/transport/llm"
	openaiEmb "github.com/civicassist/civicassist/internal/transport/openai"
	chatuc "github.com/civicassist/civicassist/internal/usecase/chat"
	complianceuc "github.com/civicassist/civicassist/internal/usecase/compliance"
	healthuc "github.com/civicassist/civicassist/internal/usecase/health"
	ingestuc "github.com/civicassist/civicassist/internal/usecase/ingest"
	llmuc "github.com/civicassist/civicassist/internal/usecase/llm"
	reportuc "github.com/civicassist/civicassist/internal/usecase/report"
	searchuc "github.com/civicassist/civicassist/internal/usecase/search"
	"github.com/civicassist/civicassist/internal/version"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting civicassist API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_path", cfg.Storage.VectorPath),
		zap.String("applications_path", cfg.Storage.ApplicationsPath),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterLLMMetrics()

	// Persistent stores
	vecStore, err := vectorstore.Open(vectorstore.Config{
		Path:       cfg.Storage.VectorPath,
		Collection: cfg.Storage.CollectionName,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("Failed to open vector store", zap.Error(err))
	}
	defer func() { _ = vecStore.Close() }()

	appStore, err := applicationsrepo.Open(cfg.Storage.ApplicationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to open application store", zap.Error(err))
	}
	defer func() { _ = appStore.Close() }()

	// Embedding provider
	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Model gateway: local tier always, hosted tier only when enabled.
	primary := llmclient.NewClient(&llmclient.Config{
		BaseURL:     cfg.LLM.Primary.BaseURL,
		APIKey:      cfg.LLM.Primary.APIKey,
		Model:       cfg.LLM.Primary.Model,
		Temperature: cfg.LLM.Primary.Temperature,
		MaxTokens:   cfg.LLM.Primary.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.Primary.TimeoutSec) * time.Second,
		Tier:        "primary",
		Logger:      logger,
	})

	var secondary llmuc.ChatTier
	if cfg.LLM.Secondary.Enabled {
		secondary = llmclient.NewClient(&llmclient.Config{
			BaseURL:     cfg.LLM.Secondary.BaseURL,
			APIKey:      cfg.LLM.Secondary.APIKey,
			Model:       cfg.LLM.Secondary.Model,
			Temperature: cfg.LLM.Secondary.Temperature,
			MaxTokens:   cfg.LLM.Secondary.MaxTokens,
			Timeout:     time.Duration(cfg.LLM.Secondary.TimeoutSec) * time.Second,
			Tier:        "secondary",
			Logger:      logger,
		})
		logger.Info("Secondary model tier enabled", zap.String("model", cfg.LLM.Secondary.Model))
	} else {
		logger.Info("Secondary model tier disabled")
	}
	gateway := llmuc.New(primary, secondary, logger)

	// Use case services
	complianceSvc := complianceuc.New(
		embedder, vecStore, gateway,
		cfg.Analysis.RetrieveTopK, cfg.Analysis.PromptChunkLimit, logger,
	)
	searchSvc := searchuc.New(embedder, vecStore, logger)
	chatSvc := chatuc.New(gateway, embedder, vecStore, logger)
	ingestSvc := ingestuc.New(
		embedder, vecStore,
		cfg.Ingest.ChunkSizeWords, cfg.Ingest.OverlapSentences, logger,
	)
	healthSvc := healthuc.New(vecStore, embedder)
	reportRenderer := reportuc.NewRenderer()

	server := httpapi.NewServer(
		complianceSvc, appStore, chatSvc, searchSvc, ingestSvc,
		vecStore, healthSvc, gateway, reportRenderer, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
