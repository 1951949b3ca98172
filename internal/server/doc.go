// Package server provides the MCP server context and the HTTP servers that
// run alongside it for the joltsms-mcp application.
//
// # Key Components
//
// ServerContext owns the JoltSMS API client together with everything built
// on it: the number resolver, the provisioning idempotency cache and the SMS
// poller. The cache and the poller share one injectable clock.
//
// HTTPServer exposes the MCP server over the streamable-http transport at
// /mcp, optionally protected by a static bearer token, and mounts the
// HealthChecker endpoints (/healthz, /readyz, /healthz/detailed).
//
// MetricsServer serves Prometheus metrics on a dedicated port.
//
// SessionHooks keeps the active session gauge in step with MCP session
// registration.
package server
