package message_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/format"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/server"
	"github.com/joltsms/joltsms-mcp/internal/tools/common"
)

const numberIDDescription = "Number ID (UUID) or phone number (e.g. +16505551234 or 6505551234)"

// RegisterMessageTools registers all message-related tools with the MCP server.
func RegisterMessageTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listMessagesTool := mcp.NewTool("joltsms_list_messages",
		mcp.WithDescription(`List recent SMS messages received on your JoltSMS numbers.

Returns sender, body, parsed OTP code (if detected), and timestamps.
Use number_id to filter to a specific number, or omit for all numbers.
Use from_filter for exact-match sender filtering.`),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("number_id",
			mcp.Description("Filter by number ID (UUID) or phone number (e.g. +16505551234 or 6505551234). Omit for all numbers."),
		),
		mcp.WithString("since",
			mcp.Description(`ISO 8601 datetime; only return messages after this time. Example: "2025-01-15T00:00:00Z"`),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max messages to return (1-10, default 10)"),
			mcp.Min(1),
			mcp.Max(10),
			mcp.DefaultNumber(joltsms.DefaultPageSize),
		),
		mcp.WithString("cursor",
			mcp.Description("Pagination cursor from previous response"),
		),
		mcp.WithString("from_filter",
			mcp.Description(`Filter by sender phone number (exact match, e.g. "+18005551234")`),
		),
	)

	s.AddTool(listMessagesTool, common.InstrumentedToolHandler("joltsms_list_messages", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))

	if err := registerOTPTools(s, sc); err != nil {
		return fmt.Errorf("failed to register OTP tools: %w", err)
	}

	if readOnly {
		return nil
	}

	markReadTool := mcp.NewTool("joltsms_mark_read",
		mcp.WithDescription(`Mark messages as read. Provide exactly ONE of:

- message_id: Mark a single message as read (UUID)
- number_id: Mark ALL messages on a number as read (UUID or phone number)

Use after extracting an OTP to keep the inbox clean.`),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("message_id",
			mcp.Description("Mark a single message as read by its UUID. Provide exactly one of message_id or number_id."),
		),
		mcp.WithString("number_id",
			mcp.Description("Mark ALL messages on this number as read. Accepts UUID or phone number. Provide exactly one of message_id or number_id."),
		),
	)

	s.AddTool(markReadTool, common.InstrumentedToolHandler("joltsms_mark_read", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMarkRead(ctx, request, sc)
		}))

	return nil
}

type listMessagesArgs struct {
	NumberID   string `json:"number_id"`
	Since      string `json:"since"`
	Limit      *int   `json:"limit" validate:"omitnil,min=1,max=10"`
	Cursor     string `json:"cursor"`
	FromFilter string `json:"from_filter"`
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args listMessagesArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	var numberID string
	if args.NumberID != "" {
		id, err := sc.Resolver().ResolveNumberID(ctx, args.NumberID)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		numberID = id
	}

	// since is passed through as given; the API interprets it.
	page, err := sc.Client().ListMessages(ctx, joltsms.ListMessagesParams{
		NumberID: numberID,
		Since:    args.Since,
		Limit:    lo.FromPtrOr(args.Limit, joltsms.DefaultPageSize),
		Cursor:   args.Cursor,
		From:     args.FromFilter,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return mcp.NewToolResultText(format.MessageList(page)), nil
}

type markReadArgs struct {
	MessageID string `json:"message_id" validate:"omitempty,opaqueid"`
	NumberID  string `json:"number_id"`
}

const exactlyOneTarget = "Provide exactly one of message_id or number_id, not both or neither"

func handleMarkRead(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args markReadArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}
	if (args.MessageID == "") == (args.NumberID == "") {
		return common.ErrorResult(&common.ArgumentError{Problems: []string{exactlyOneTarget}}), nil
	}

	if args.MessageID != "" {
		resp, err := sc.Client().MarkMessageRead(ctx, args.MessageID)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		return mcp.NewToolResultText(format.MarkedRead(resp)), nil
	}

	resolver := sc.Resolver()
	numberID, err := resolver.ResolveNumberID(ctx, args.NumberID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	// The phone number is only for display; fall back to what the caller sent.
	display := args.NumberID
	if n, err := resolver.FindNumber(ctx, numberID); err == nil {
		display = n.PhoneNumber
	}

	resp, err := sc.Client().MarkAllMessagesRead(ctx, numberID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return mcp.NewToolResultText(format.MarkedAllRead(resp.Count, display)), nil
}
