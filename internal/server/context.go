package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joltsms/joltsms-mcp/internal/clock"
	"github.com/joltsms/joltsms-mcp/internal/idempotency"
	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/logging"
	"github.com/joltsms/joltsms-mcp/internal/poller"
)

// ServerContext holds the shared state every tool handler needs: the API
// client, the number resolver, the provisioning idempotency cache and the
// SMS poller. All of them run on the same clock.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	client      *joltsms.Client
	resolver    *joltsms.Resolver
	idempotency *idempotency.Cache
	poller      *poller.Poller
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	readOnly    bool
	mu          sync.RWMutex
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithClock replaces the system clock. Tests use clock.Fake to drive waits
// and idempotency expiry.
func WithClock(c clock.Clock) Option {
	return func(sc *ServerContext) {
		sc.clock = c
	}
}

// WithLogger sets the logger handed to the poller and used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder at construction time.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithReadOnly marks the context as serving only non-writing tools.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) {
		sc.readOnly = readOnly
	}
}

// NewServerContext creates a new server context around an API client.
func NewServerContext(ctx context.Context, client *joltsms.Client, opts ...Option) (*ServerContext, error) {
	if client == nil {
		return nil, fmt.Errorf("joltsms client is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		client: client,
		clock:  clock.NewSystem(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	sc.resolver = joltsms.NewResolver(client)
	sc.idempotency = idempotency.New(idempotency.WithClock(sc.clock))
	sc.poller = sc.newPoller()

	return sc, nil
}

func (sc *ServerContext) newPoller() *poller.Poller {
	return poller.New(
		poller.WithClock(sc.clock),
		poller.WithLogger(logging.NewSlogAdapter(sc.logger)),
		poller.WithMetrics(sc.metrics),
	)
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Client returns the JoltSMS API client.
func (sc *ServerContext) Client() *joltsms.Client {
	return sc.client
}

// Resolver returns the number resolver backed by the API client.
func (sc *ServerContext) Resolver() *joltsms.Resolver {
	return sc.resolver
}

// Idempotency returns the provisioning idempotency cache.
func (sc *ServerContext) Idempotency() *idempotency.Cache {
	return sc.idempotency
}

// Poller returns the SMS poller.
func (sc *ServerContext) Poller() *poller.Poller {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.poller
}

// Clock returns the clock shared by the poller and the idempotency cache.
func (sc *ServerContext) Clock() clock.Clock {
	return sc.clock
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder used by tool instrumentation and SMS
// waits.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
	sc.poller = sc.newPoller()
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger used by tool instrumentation.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
