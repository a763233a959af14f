package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "floatchat_build_info",
		Help: "Build information",
	}, []string{"version", "commit", "date"})

	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floatchat_chat_requests_total",
		Help: "Chat requests by result",
	}, []string{"result"})

	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floatchat_provider_calls_total",
		Help: "Language model provider calls by result",
	}, []string{"result"})

	ProviderFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatchat_provider_fallbacks_total",
		Help: "Chat replies served by the rule-based fallback after a provider failure",
	})

	ProviderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "floatchat_provider_latency_seconds",
		Help:    "Language model provider call latency",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	ContextSampleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatchat_context_sample_errors_total",
		Help: "Sample queries that failed during context assembly and were degraded to empty",
	})

	RecordsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floatchat_records_ingested_total",
		Help: "Measurement records inserted by the ingest command",
	})
)
