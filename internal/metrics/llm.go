package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM gateway Prometheus metrics. The tier label is one of
// "primary", "secondary", "safe_default".
var (
	LLMTierCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicassist",
			Name:      "llm_tier_calls_total",
			Help:      "Total LLM calls per tier and outcome",
		},
		[]string{"tier", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "civicassist",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tier"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicassist",
			Name:      "compliance_analyses_total",
			Help:      "Total compliance analyses by resulting status",
		},
		[]string{"status"},
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers Prometheus LLM metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMTierCallsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(AnalysesTotal)
	llmMetricsRegistered = true
}
