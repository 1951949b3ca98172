// Package cmd implements the command-line interface for joltsms-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable-http
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Serve settings come from flags or JOLTSMS_* environment variables;
// JOLTSMS_API_KEY is required.
package cmd
