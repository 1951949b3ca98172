package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/joltsms/joltsms-mcp/internal/logging"
)

// ToolInvocation captures one MCP tool call for audit logging.
//
// # Privacy Considerations
//
// PhoneNumber identifies a rented number and is masked in logs unless
// the audit logger is configured with IncludePhoneNumbers.
type ToolInvocation struct {
	Tool string

	// Target information
	PhoneNumber  string // E.164 number the tool acted on, if known
	ResourceType string // number, message, subscription
	ResourceID   string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging. When includePhone
// is false the phone number is masked to its last four digits.
func (ti *ToolInvocation) LogAttrs(includePhone bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String(logging.KeyTool, ti.Tool),
		logging.Duration(ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.PhoneNumber != "" {
		phone := ti.PhoneNumber
		if !includePhone {
			phone = logging.MaskPhone(phone)
		}
		attrs = append(attrs, slog.String(logging.KeyPhone, phone))
	}
	if ti.ResourceType != "" {
		attrs = append(attrs, slog.String("resource_type", ti.ResourceType))
	}
	if ti.ResourceID != "" {
		attrs = append(attrs, slog.String("resource_id", ti.ResourceID))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithPhoneNumber sets the phone number the tool acted on.
func (ti *ToolInvocation) WithPhoneNumber(phone string) *ToolInvocation {
	ti.PhoneNumber = phone
	return ti
}

// WithResource sets the resource the tool acted on.
func (ti *ToolInvocation) WithResource(resourceType, resourceID string) *ToolInvocation {
	ti.ResourceType = resourceType
	ti.ResourceID = resourceID
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger writes one structured record per tool invocation.
type AuditLogger struct {
	logger       *slog.Logger
	includePhone bool
	enabled      bool
}

// NewAuditLogger creates an enabled AuditLogger that masks phone numbers.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:       logger,
		includePhone: config.IncludePhoneNumbers,
		enabled:      config.Enabled,
	}
}

// LogToolInvocation logs a completed tool invocation. Failures log at warn.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includePhone)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
