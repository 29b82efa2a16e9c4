package llm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
	"github.com/civicassist/civicassist/internal/metrics"
)

// Gateway runs the strict tier escalation for model calls:
// primary -> secondary (when configured) -> safe default. No tier is
// retried; a transport failure, timeout, or schema-invalid reply falls
// through to the next tier. The gateway never raises past its caller:
// GenerateAnalysis always returns a schema-valid Analysis.
type Gateway struct {
	primary   ChatTier
	secondary ChatTier // nil when the secondary tier is disabled
	logger    *zap.Logger

	primaryCalls   atomic.Int64
	secondaryCalls atomic.Int64
	fallbackCalls  atomic.Int64
}

// Stats reports how many calls landed on each tier.
type Stats struct {
	PrimaryCalls   int64 `json:"primary_calls"`
	SecondaryCalls int64 `json:"secondary_calls"`
	FallbackCalls  int64 `json:"fallback_calls"`
}

// New creates a gateway. secondary may be nil to disable the hosted tier.
func New(primary ChatTier, secondary ChatTier, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{primary: primary, secondary: secondary, logger: logger}
}

// GenerateAnalysis produces a schema-valid compliance analysis for the
// given application fields and retrieved regulation chunks. It never
// returns an error: when every model tier fails the fixed safe default
// is returned.
func (g *Gateway) GenerateAnalysis(
	ctx context.Context, fields map[string]string, regulations []string,
) domain.Analysis {
	messages := buildAnalysisMessages(fields, regulations)

	g.primaryCalls.Add(1)
	if analysis, err := g.attempt(ctx, g.primary, messages); err == nil {
		return analysis
	} else {
		g.logger.Warn("primary tier failed", zap.Error(err))
	}

	if g.secondary != nil {
		g.secondaryCalls.Add(1)
		// The hosted tier costs real money per call; keep that visible.
		g.logger.Warn("escalating to secondary tier, cost incurred",
			zap.String("tier", g.secondary.Tier()),
		)
		if analysis, err := g.attempt(ctx, g.secondary, messages); err == nil {
			return analysis
		} else {
			g.logger.Error("secondary tier failed", zap.Error(err))
		}
	} else {
		g.logger.Info("secondary tier disabled, skipping")
	}

	g.fallbackCalls.Add(1)
	metrics.LLMTierCallsTotal.WithLabelValues("safe_default", "success").Inc()
	g.logger.Error("all model tiers failed, returning safe default",
		zap.Int64("fallback_calls", g.fallbackCalls.Load()),
	)
	return domain.SafeDefaultAnalysis()
}

// attempt runs one tier and schema-checks its reply. Parse and schema
// failures are reported identically to transport failures.
func (g *Gateway) attempt(ctx context.Context, tier ChatTier, messages []domain.ChatMessage) (domain.Analysis, error) {
	start := time.Now()
	content, err := tier.ChatCompletion(ctx, messages, true)
	metrics.LLMRequestDuration.WithLabelValues(tier.Tier()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMTierCallsTotal.WithLabelValues(tier.Tier(), "error").Inc()
		return domain.Analysis{}, err
	}

	analysis, err := domain.ParseAnalysis([]byte(content))
	if err != nil {
		metrics.LLMTierCallsTotal.WithLabelValues(tier.Tier(), "invalid").Inc()
		return domain.Analysis{}, fmt.Errorf("%s tier reply rejected: %w", tier.Tier(), err)
	}

	metrics.LLMTierCallsTotal.WithLabelValues(tier.Tier(), "success").Inc()
	g.logger.Info("analysis generated", zap.String("tier", tier.Tier()))
	return analysis, nil
}

// Chat runs a free-form conversation through the same escalation order.
// Unlike GenerateAnalysis the reply is plain text, so only transport
// failures escalate; when every tier fails the error is returned for the
// chat service to degrade on.
func (g *Gateway) Chat(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	g.primaryCalls.Add(1)
	start := time.Now()
	content, err := g.primary.ChatCompletion(ctx, messages, false)
	metrics.LLMRequestDuration.WithLabelValues(g.primary.Tier()).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.LLMTierCallsTotal.WithLabelValues(g.primary.Tier(), "success").Inc()
		return content, nil
	}
	metrics.LLMTierCallsTotal.WithLabelValues(g.primary.Tier(), "error").Inc()
	g.logger.Warn("primary tier failed for chat", zap.Error(err))

	if g.secondary == nil {
		return "", err
	}

	g.secondaryCalls.Add(1)
	g.logger.Warn("escalating chat to secondary tier, cost incurred")
	start = time.Now()
	content, err = g.secondary.ChatCompletion(ctx, messages, false)
	metrics.LLMRequestDuration.WithLabelValues(g.secondary.Tier()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMTierCallsTotal.WithLabelValues(g.secondary.Tier(), "error").Inc()
		return "", err
	}
	metrics.LLMTierCallsTotal.WithLabelValues(g.secondary.Tier(), "success").Inc()
	return content, nil
}

// GetStats returns per-tier call counters.
func (g *Gateway) GetStats() Stats {
	return Stats{
		PrimaryCalls:   g.primaryCalls.Load(),
		SecondaryCalls: g.secondaryCalls.Load(),
		FallbackCalls:  g.fallbackCalls.Load(),
	}
}
