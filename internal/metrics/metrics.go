// Package metrics defines Prometheus metrics for listing generation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "listing"

// Generation outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeParseFailed     = "parse_failed"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeUnavailable     = "provider_unavailable"
	OutcomeGenerationError = "generation_failed"
)

// Generation metrics.
var (
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "generations_total",
		Help:      "Total number of listing generation calls by outcome.",
	}, []string{"provider", "outcome"})

	ParseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parse_failures_total",
		Help:      "Total number of provider responses that could not be parsed into a listing.",
	}, []string{"provider"})

	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_duration_seconds",
		Help:      "Duration of inference provider calls in seconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})
)

// Image fetch metrics.
var (
	ImageFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_fetch_total",
		Help:      "Total number of image fetches by outcome.",
	}, []string{"outcome"})
)
