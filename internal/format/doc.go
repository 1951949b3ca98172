// Package format renders JoltSMS API results as the plain text returned by
// the MCP tools.
//
// Every function is pure: it takes already-fetched values and returns a
// string. Timestamps are shown as the API sent them, or trimmed to their date
// part where only the day matters.
package format
