package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	imagesStoredTotal        atomic.Uint64
	imagesRejectedTotal      atomic.Uint64
	calculationsTotal        atomic.Uint64
	calculationsFailedTotal  atomic.Uint64
	aiInvalidResponsesTotal  atomic.Uint64
	aiUnrecognizedEntryTotal atomic.Uint64

	aiCallDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncImagesStored counts records created by ingestion.
func IncImagesStored() { imagesStoredTotal.Add(1) }

// IncImagesRejected counts ingestion requests refused for bad input.
func IncImagesRejected() { imagesRejectedTotal.Add(1) }

// IncCalculations counts analysis requests that reached the model.
func IncCalculations() { calculationsTotal.Add(1) }

// IncCalculationsFailed counts analysis requests answered with a 5xx.
func IncCalculationsFailed() { calculationsFailedTotal.Add(1) }

// IncAIInvalidResponses counts model responses that were not a JSON array.
func IncAIInvalidResponses() { aiInvalidResponsesTotal.Add(1) }

// AddAIUnrecognizedEntries counts array entries matching no documented shape.
func AddAIUnrecognizedEntries(n int) {
	if n > 0 {
		aiUnrecognizedEntryTotal.Add(uint64(n))
	}
}

// ObserveAICallMs records a model round-trip in milliseconds.
func ObserveAICallMs(value float64) {
	if value < 0 {
		value = 0
	}
	aiCallDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "images_stored_total", "Images persisted by ingestion", imagesStoredTotal.Load())
	writeCounter(&buf, "images_rejected_total", "Ingestion requests rejected for invalid input", imagesRejectedTotal.Load())
	writeCounter(&buf, "calculations_total", "Analysis requests sent to the model", calculationsTotal.Load())
	writeCounter(&buf, "calculations_failed_total", "Analysis requests that failed with a server error", calculationsFailedTotal.Load())
	writeCounter(&buf, "ai_invalid_responses_total", "Model responses that did not parse as a JSON array", aiInvalidResponsesTotal.Load())
	writeCounter(&buf, "ai_unrecognized_entries_total", "Model result entries matching no documented shape", aiUnrecognizedEntryTotal.Load())
	writeHistogram(&buf, "ai_call_duration_ms", "Model call duration in milliseconds", aiCallDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe increments the first bucket whose bound holds value; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
