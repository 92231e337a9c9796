// Package metrics exposes Prometheus instrumentation for the OCR pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glyph_pages_total",
			Help: "Total number of pages processed",
		},
		[]string{"status"}, // status: ok, error
	)

	processingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glyph_processing_duration_seconds",
			Help:    "Per-stage processing duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"stage"}, // stage: detection, classification, recognition, layout, table, total
	)

	regionsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "glyph_regions_detected",
			Help:    "Number of text regions detected per page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	textLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "glyph_text_length_chars",
			Help:    "Length of extracted text per page",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)
)

// Stage labels for ObserveDuration.
const (
	StageDetection      = "detection"
	StageClassification = "classification"
	StageRecognition    = "recognition"
	StageLayout         = "layout"
	StageTable          = "table"
	StageTotal          = "total"
)

// PageProcessed records the outcome of one page.
func PageProcessed(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	pagesTotal.WithLabelValues(status).Inc()
}

// ObserveDuration records a stage duration.
func ObserveDuration(stage string, d time.Duration) {
	processingDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRegions records the region count of one page.
func ObserveRegions(n int) {
	regionsDetected.Observe(float64(n))
}

// ObserveTextLength records the extracted text length of one page.
func ObserveTextLength(n int) {
	textLength.Observe(float64(n))
}
