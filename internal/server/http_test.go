package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`

func newTestHTTPServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	sc := newTestServerContext(t)
	mcpSrv := mcpserver.NewMCPServer("joltsms-test", "test", mcpserver.WithToolCapabilities(true))
	srv := NewHTTPServer(mcpSrv, HTTPConfig{
		AuthToken:     token,
		HealthChecker: NewHealthChecker(sc, "test"),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postMCP(t *testing.T, url, auth string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+MCPEndpointPath, strings.NewReader(initializeRequest))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /mcp error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTPServer_BearerAuth(t *testing.T) {
	ts := newTestHTTPServer(t, "s3cret")

	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{name: "missing header", auth: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", auth: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", auth: "Basic s3cret", wantStatus: http.StatusUnauthorized},
		{name: "valid token", auth: "Bearer s3cret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postMCP(t, ts.URL, tt.auth)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header on 401")
			}
		})
	}
}

func TestHTTPServer_NoAuthConfigured(t *testing.T) {
	ts := newTestHTTPServer(t, "")

	resp := postMCP(t, ts.URL, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHTTPServer_HealthEndpointsSkipAuth(t *testing.T) {
	ts := newTestHTTPServer(t, "s3cret")

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}
