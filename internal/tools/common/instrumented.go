package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/codes"

	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with a trace span, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().WithReadOnly(sc.ReadOnly()).Build()...)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)
		annotateTarget(invocation, request.GetArguments())

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			invocation.Error = resultText(result)
			span.SetStatus(codes.Error, invocation.Error)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}

// annotateTarget records which number or message a call was about. Raw phone
// numbers go to PhoneNumber so the audit logger can mask them.
func annotateTarget(invocation *instrumentation.ToolInvocation, args map[string]any) {
	if id, ok := args["message_id"].(string); ok && id != "" {
		invocation.WithResource("message", id)
		return
	}
	if id, ok := args["subscription_id"].(string); ok && id != "" {
		invocation.WithResource("subscription", id)
		return
	}
	id, ok := args["number_id"].(string)
	if !ok || id == "" {
		return
	}
	if joltsms.IsOpaqueID(id) {
		invocation.WithResource("number", id)
		return
	}
	invocation.ResourceType = "number"
	if phone, err := joltsms.NormalizePhone(id); err == nil {
		invocation.WithPhoneNumber(phone)
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
