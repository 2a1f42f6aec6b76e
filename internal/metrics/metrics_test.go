package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	MustRegister()
	MustRegister()

	before := testutil.ToFloat64(exchangesTotal.WithLabelValues("stream", "timeout"))
	IncExchange(" Stream ", "TIMEOUT")
	assert.Equal(t, before+1, testutil.ToFloat64(exchangesTotal.WithLabelValues("stream", "timeout")))

	skipped := testutil.ToFloat64(chunksSkipped.WithLabelValues("ollama"))
	ChunkSkipped("Ollama")
	assert.Equal(t, skipped+1, testutil.ToFloat64(chunksSkipped.WithLabelValues("ollama")))

	ObserveGeneration("ollama", "sync", 1500*time.Millisecond, true)
	assert.Positive(t, testutil.CollectAndCount(generationLatency))
}
