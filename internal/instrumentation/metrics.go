package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrCategory  = "category"
	attrSource    = "source"
	attrResult    = "result"
	attrStatus    = "status"
	attrOperation = "operation"
)

// Metrics provides methods for recording classification metrics.
// A zero Metrics (or a nil *Metrics) records nothing.
type Metrics struct {
	// Classification metrics
	classificationsTotal metric.Int64Counter

	// Cache metrics
	cacheLookupsTotal metric.Int64Counter

	// Model metrics
	modelCompletionsTotal   metric.Int64Counter
	modelCompletionDuration metric.Float64Histogram

	// Gmail API metrics
	gmailOperationsTotal   metric.Int64Counter
	gmailOperationDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.classificationsTotal, err = meter.Int64Counter(
		"classifications_total",
		metric.WithDescription("Total number of classified messages"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifications_total counter: %w", err)
	}

	m.cacheLookupsTotal, err = meter.Int64Counter(
		"cache_lookups_total",
		metric.WithDescription("Total number of classification cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache_lookups_total counter: %w", err)
	}

	m.modelCompletionsTotal, err = meter.Int64Counter(
		"model_completions_total",
		metric.WithDescription("Total number of model completions"),
		metric.WithUnit("{completion}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_completions_total counter: %w", err)
	}

	// Local models on CPU take seconds per completion
	m.modelCompletionDuration, err = meter.Float64Histogram(
		"model_completion_duration_seconds",
		metric.WithDescription("Model completion duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_completion_duration_seconds histogram: %w", err)
	}

	m.gmailOperationsTotal, err = meter.Int64Counter(
		"gmail_api_operations_total",
		metric.WithDescription("Total number of Gmail API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_operations_total counter: %w", err)
	}

	m.gmailOperationDuration, err = meter.Float64Histogram(
		"gmail_api_operation_duration_seconds",
		metric.WithDescription("Gmail API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_operation_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordClassification records one classified message.
// source is one of cache, model or fallback.
func (m *Metrics) RecordClassification(ctx context.Context, category, source string) {
	if m == nil || m.classificationsTotal == nil {
		return
	}
	m.classificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCategory, category),
		attribute.String(attrSource, source),
	))
}

// RecordCacheLookup records a cache lookup with result hit, miss or error.
func (m *Metrics) RecordCacheLookup(ctx context.Context, result string) {
	if m == nil || m.cacheLookupsTotal == nil {
		return
	}
	m.cacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordModelCompletion records one model call and how long it took.
func (m *Metrics) RecordModelCompletion(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.modelCompletionsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.modelCompletionsTotal.Add(ctx, 1, attrs)
	if m.modelCompletionDuration != nil {
		m.modelCompletionDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordGmailOperation records a Gmail API call.
func (m *Metrics) RecordGmailOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.gmailOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.gmailOperationsTotal.Add(ctx, 1, attrs)
	if m.gmailOperationDuration != nil {
		m.gmailOperationDuration.Record(ctx, duration.Seconds(), attrs)
	}
}
