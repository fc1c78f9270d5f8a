package codesearch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "codesearch-client"

// Request outcomes recorded on codesearch_requests_total.
const (
	outcomeSuccess  = "success"
	outcomeCacheHit = "cache_hit"
	outcomeError    = "error"
)

// clientMetrics holds the instruments recorded for every backend call.
type clientMetrics struct {
	requestCounter  metric.Int64Counter
	durationMs      metric.Float64Histogram
	cacheHitCounter metric.Int64Counter
	cacheMissCount  metric.Int64Counter
}

func newClientMetrics(provider metric.MeterProvider) *clientMetrics {
	meter := provider.Meter(instrumentationName)

	requestCounter, _ := meter.Int64Counter(
		"codesearch_requests_total",
		metric.WithDescription("Total number of code search backend requests"),
	)

	durationMs, _ := meter.Float64Histogram(
		"codesearch_request_duration_ms",
		metric.WithDescription("Duration of code search backend requests"),
		metric.WithUnit("ms"),
	)

	cacheHitCounter, _ := meter.Int64Counter(
		"codesearch_cache_hits_total",
		metric.WithDescription("Total number of responses served from the local cache"),
	)

	cacheMissCount, _ := meter.Int64Counter(
		"codesearch_cache_misses_total",
		metric.WithDescription("Total number of cacheable requests not found in the local cache"),
	)

	return &clientMetrics{
		requestCounter:  requestCounter,
		durationMs:      durationMs,
		cacheHitCounter: cacheHitCounter,
		cacheMissCount:  cacheMissCount,
	}
}

func (m *clientMetrics) recordRequest(ctx context.Context, endpoint, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)
	m.requestCounter.Add(ctx, 1, attrs)
	m.durationMs.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}

func (m *clientMetrics) recordCacheLookup(ctx context.Context, endpoint string, hit bool) {
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	if hit {
		m.cacheHitCounter.Add(ctx, 1, attrs)
		return
	}
	m.cacheMissCount.Add(ctx, 1, attrs)
}
