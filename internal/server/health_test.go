package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
)

func newTestServerContext(t *testing.T, opts ...Option) *ServerContext {
	t.Helper()
	client, err := joltsms.NewClient("http://127.0.0.1:1", "jolt_sk_test")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	sc, err := NewServerContext(context.Background(), client, opts...)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil, "test")
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want %d even when not ready", rec.Code, http.StatusOK)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		shutdown   bool
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "ready",
			ready:      true,
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok", "joltsms_client": "ok"},
		},
		{
			name:       "not ready",
			ready:      false,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "not ready"},
		},
		{
			name:       "shutting down",
			ready:      true,
			shutdown:   true,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"shutdown": "shutting down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t)
			h := NewHealthChecker(sc, "test")
			h.SetReady(tt.ready)
			if tt.shutdown {
				_ = sc.Shutdown()
			}

			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			for k, v := range tt.wantChecks {
				if resp.Checks[k] != v {
					t.Errorf("check %q = %q, want %q", k, resp.Checks[k], v)
				}
			}
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc := newTestServerContext(t, WithReadOnly(true))
	h := NewHealthChecker(sc, "1.2.3")
	h.SessionOpened()
	h.SessionOpened()
	h.SessionClosed()

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp DetailedHealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %q", resp.Version)
	}
	if resp.Upstream != "http://127.0.0.1:1" {
		t.Errorf("upstream = %q", resp.Upstream)
	}
	if !resp.ReadOnly {
		t.Error("expected read_only to be true")
	}
	if resp.ActiveSessions != 1 {
		t.Errorf("active_sessions = %d, want 1", resp.ActiveSessions)
	}
}
