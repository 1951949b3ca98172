package instrumentation

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, detailed bool) *Provider {
	t.Helper()
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
		DetailedLabels:  detailed,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

// scrape returns the Prometheus exposition text for the provider.
func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	handler := provider.PrometheusHandler()
	if handler == nil {
		t.Fatal("expected prometheus handler")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	provider := newTestProvider(t, false)
	ctx := context.Background()

	provider.Metrics().RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
	provider.Metrics().RecordHTTPRequest(ctx, "POST", "/mcp", 401, 5*time.Millisecond)

	out := scrape(t, provider)
	if !strings.Contains(out, "http_requests_total") {
		t.Errorf("expected http_requests_total in scrape output")
	}
}

func TestMetrics_RecordAPIRequest(t *testing.T) {
	provider := newTestProvider(t, false)
	ctx := context.Background()

	provider.Metrics().RecordAPIRequest(ctx, "numbers.list", 200, 120*time.Millisecond)
	provider.Metrics().RecordAPIRequest(ctx, "numbers.rent", 402, 300*time.Millisecond)
	provider.Metrics().RecordAPIRequest(ctx, "messages.list", 0, 30*time.Second)

	out := scrape(t, provider)
	if !strings.Contains(out, "joltsms_api_requests_total") {
		t.Fatalf("expected joltsms_api_requests_total in scrape output")
	}
	if !strings.Contains(out, `status_class="4xx"`) {
		t.Errorf("expected status_class label in output")
	}
	if strings.Contains(out, `status="402"`) {
		t.Errorf("exact status must not be recorded without detailed labels")
	}
}

func TestMetrics_RecordAPIRequest_DetailedLabels(t *testing.T) {
	provider := newTestProvider(t, true)

	provider.Metrics().RecordAPIRequest(context.Background(), "numbers.rent", 402, time.Second)

	if out := scrape(t, provider); !strings.Contains(out, `status="402"`) {
		t.Errorf("expected exact status label with detailed labels enabled")
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	provider := newTestProvider(t, false)
	ctx := context.Background()

	provider.Metrics().RecordToolInvocation(ctx, "joltsms_list_numbers", StatusSuccess, 100*time.Millisecond)
	provider.Metrics().RecordToolInvocation(ctx, "joltsms_wait_for_sms", StatusError, 2*time.Minute)

	if out := scrape(t, provider); !strings.Contains(out, "mcp_tool_invocations_total") {
		t.Errorf("expected mcp_tool_invocations_total in scrape output")
	}
}

func TestMetrics_RecordSMSWait(t *testing.T) {
	provider := newTestProvider(t, false)
	ctx := context.Background()

	provider.Metrics().RecordSMSWait(ctx, WaitOutcomeMatched, 3)
	provider.Metrics().RecordSMSWait(ctx, WaitOutcomeTimedOut, 24)

	out := scrape(t, provider)
	if !strings.Contains(out, "sms_waits_total") {
		t.Errorf("expected sms_waits_total in scrape output")
	}
	if !strings.Contains(out, `outcome="timed_out"`) {
		t.Errorf("expected timed_out outcome label")
	}
}

func TestMetrics_RecordIdempotencyLookup(t *testing.T) {
	provider := newTestProvider(t, false)
	ctx := context.Background()

	provider.Metrics().RecordIdempotencyLookup(ctx, IdempotencyMiss)
	provider.Metrics().RecordIdempotencyLookup(ctx, IdempotencyHit)

	if out := scrape(t, provider); !strings.Contains(out, `result="hit"`) {
		t.Errorf("expected hit result label")
	}
}

func TestMetrics_ActiveSessions(t *testing.T) {
	provider := newTestProvider(t, false)
	ctx := context.Background()

	provider.Metrics().IncrementActiveSessions(ctx)
	provider.Metrics().IncrementActiveSessions(ctx)
	provider.Metrics().DecrementActiveSessions(ctx)

	if out := scrape(t, provider); !strings.Contains(out, "active_sessions") {
		t.Errorf("expected active_sessions in scrape output")
	}
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	ctx := context.Background()
	m := provider.Metrics()

	// Should not panic
	m.RecordHTTPRequest(ctx, "GET", "/mcp", 200, time.Second)
	m.RecordAPIRequest(ctx, "numbers.list", 200, time.Second)
	m.RecordToolInvocation(ctx, "joltsms_list_numbers", StatusSuccess, time.Second)
	m.RecordSMSWait(ctx, WaitOutcomeMatched, 1)
	m.RecordIdempotencyLookup(ctx, IdempotencyHit)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// Should not panic
	m.RecordAPIRequest(ctx, "numbers.list", 200, time.Second)
	m.RecordToolInvocation(ctx, "joltsms_list_numbers", StatusSuccess, time.Second)
	m.RecordSMSWait(ctx, WaitOutcomeError, 1)
}
