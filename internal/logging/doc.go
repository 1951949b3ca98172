// Package logging provides structured logging helpers for joltsms-mcp.
//
// All logs go to stderr: in stdio mode stdout carries the MCP protocol and
// must never receive log output.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "joltsms_wait_for_sms")
//	logger.Info("sms received", logging.Status(logging.StatusSuccess))
//
// Mask phone numbers before logging:
//
//	logger.Info("number resolved", logging.Phone(e164), logging.NumberID(id))
//
// The API key is never logged; use SanitizeToken to record its presence.
package logging
