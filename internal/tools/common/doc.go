// Package common provides shared utilities for MCP tool implementations:
// instrumentation of tool handlers, typed argument binding with validation,
// and the flattening of errors into tool error results.
package common
