package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderlens_questions_total",
			Help: "Total questions handled, by classified intent type and outcome.",
		},
		[]string{"intent", "outcome"},
	)
	classifierParseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orderlens_classifier_parse_failures_total",
			Help: "Total classifier responses that could not be decoded as an intent.",
		},
	)
	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderlens_llm_request_duration_seconds",
			Help:    "Latency of language model calls, by role.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"role"},
	)
	dispatchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orderlens_dispatch_duration_seconds",
			Help:    "Latency of aggregation query dispatch.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	agentSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orderlens_agent_steps",
			Help:    "Tool-calling iterations taken per agent answer.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		classifierParseFailuresTotal,
		llmRequestDurationSeconds,
		dispatchDurationSeconds,
		agentSteps,
	)
}

func ObserveQuestion(intent, outcome string) {
	if intent == "" {
		intent = "none"
	}
	questionsTotal.WithLabelValues(intent, outcome).Inc()
}

func IncrementClassifierParseFailure() {
	classifierParseFailuresTotal.Inc()
}

func ObserveLLMRequest(role string, elapsed time.Duration) {
	llmRequestDurationSeconds.WithLabelValues(role).Observe(elapsed.Seconds())
}

func ObserveDispatch(elapsed time.Duration) {
	dispatchDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveAgentSteps(steps int) {
	agentSteps.Observe(float64(steps))
}
