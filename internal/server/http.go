package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
)

const (
	// DefaultHTTPAddr is the default listen address for streamable-http.
	DefaultHTTPAddr = ":8080"

	// MCPEndpointPath is where the streamable-http transport is mounted.
	MCPEndpointPath = "/mcp"
)

// HTTPConfig configures the streamable-http MCP server.
type HTTPConfig struct {
	// Addr is the listen address (e.g., ":8080").
	Addr string

	// AuthToken, when set, must be presented as "Authorization: Bearer <token>"
	// on every MCP request. Health endpoints are never authenticated.
	AuthToken string

	// HealthChecker serves /healthz, /readyz and /healthz/detailed.
	HealthChecker *HealthChecker

	// Metrics records inbound HTTP requests. May be nil.
	Metrics *instrumentation.Metrics
}

// HTTPServer exposes an MCP server over the streamable-http transport.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	config     HTTPConfig
	httpServer *http.Server
}

// NewHTTPServer creates a new streamable-http server for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPConfig) *HTTPServer {
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	s := &HTTPServer{
		mcpServer: mcpServer,
		config:    config,
	}
	// No WriteTimeout: joltsms_wait_for_sms holds a request open for up to
	// five minutes.
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler builds the HTTP routing for the server.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	)

	var mcpHandler http.Handler = streamable
	if s.config.AuthToken != "" {
		mcpHandler = bearerAuth(s.config.AuthToken, mcpHandler)
	}
	mux.Handle(MCPEndpointPath, mcpHandler)

	if s.config.HealthChecker != nil {
		s.config.HealthChecker.RegisterHealthEndpoints(mux)
	}

	return recordRequests(s.config.Metrics, mux)
}

// Start listens on the configured address and serves until Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *HTTPServer) Serve(ln net.Listener) error {
	slog.Info("starting streamable-http server",
		"addr", ln.Addr().String(),
		"endpoint", MCPEndpointPath,
		"auth", s.config.AuthToken != "")
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// bearerAuth rejects requests that do not carry the expected static token.
func bearerAuth(token string, next http.Handler) http.Handler {
	expected := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="joltsms-mcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func recordRequests(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
