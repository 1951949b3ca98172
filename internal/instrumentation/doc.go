// Package instrumentation provides OpenTelemetry instrumentation for the
// joltsms-mcp server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active MCP client sessions
//
// JoltSMS API Metrics:
//   - joltsms_api_requests_total: Counter of upstream requests by operation and status class
//   - joltsms_api_request_duration_seconds: Histogram of upstream request durations
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// SMS Metrics:
//   - sms_waits_total: Counter of completed SMS waits by outcome
//   - sms_wait_polls: Histogram of message queries issued per wait
//   - provision_idempotency_lookups_total: Counter of idempotency token lookups by result
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and JoltSMS API
// calls (joltsms.<operation>). Outbound HTTP is additionally traced by otelhttp.
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: joltsms-mcp)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordToolInvocation(ctx, "joltsms_wait_for_sms", "success", time.Since(start))
//	recorder.RecordSMSWait(ctx, instrumentation.WaitOutcomeMatched, 3)
package instrumentation
