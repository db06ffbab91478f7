// Package instrumentation provides OpenTelemetry instrumentation for inboxtally.
//
// The same recorder is used by one-shot runs and by the long-running watch
// mode, which is where the Prometheus endpoint is served:
//   - OpenTelemetry metrics for classifications, cache lookups, model calls
//     and Gmail API calls
//   - Tracing for each classified message and each Gmail API call
//   - Prometheus export via the /metrics endpoint of the watch command
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Classification:
//   - classifications_total: Counter by category and source (cache, model, fallback)
//
// Cache:
//   - cache_lookups_total: Counter by result (hit, miss, error)
//
// Model:
//   - model_completions_total: Counter by status
//   - model_completion_duration_seconds: Histogram of completion durations
//
// Gmail API:
//   - gmail_api_operations_total: Counter by operation and status
//   - gmail_api_operation_duration_seconds: Histogram of call durations
//
// # Configuration
//
// Environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout)
//   - METRICS_EXPORT_INTERVAL: Push interval for otlp and stdout metrics (default: 10s)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint URL
//   - OTEL_EXPORTER_OTLP_INSECURE: Use plain HTTP for OTLP
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0)
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics() // nil when disabled, still safe to call
//	metrics.RecordCacheLookup(ctx, instrumentation.CacheHit)
//
// A disabled provider leaves the global OpenTelemetry providers untouched,
// as does a tracing exporter of none.
package instrumentation
