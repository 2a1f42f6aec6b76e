// Package metrics holds the Prometheus collectors of the chat backend.
package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	generationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_generation_latency_seconds",
			Help:    "Generation call latency by provider, mode and success.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider", "mode", "success"},
	)

	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_exchanges_total",
			Help: "Chat exchanges by mode and outcome (ok/not_found/invalid/busy/timeout/unavailable/error).",
		},
		[]string{"mode", "outcome"},
	)

	chunksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_stream_chunks_skipped_total",
			Help: "Malformed stream chunks skipped per provider.",
		},
		[]string{"provider"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(generationLatency, exchangesTotal, chunksSkipped)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ObserveGeneration(provider, mode string, elapsed time.Duration, success bool) {
	generationLatency.WithLabelValues(norm(provider), norm(mode), strconv.FormatBool(success)).
		Observe(elapsed.Seconds())
}

func IncExchange(mode, outcome string) {
	exchangesTotal.WithLabelValues(norm(mode), norm(outcome)).Inc()
}

func ChunkSkipped(provider string) {
	chunksSkipped.WithLabelValues(norm(provider)).Inc()
}
