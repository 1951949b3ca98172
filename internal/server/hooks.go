package server

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
)

// SessionHooks keeps the active_sessions gauge and the health checker's
// session count in step with MCP session registration. Either argument may
// be nil.
func SessionHooks(metrics *instrumentation.Metrics, health *HealthChecker) *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		metrics.IncrementActiveSessions(ctx)
		if health != nil {
			health.SessionOpened()
		}
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		metrics.DecrementActiveSessions(ctx)
		if health != nil {
			health.SessionClosed()
		}
	})

	return hooks
}
