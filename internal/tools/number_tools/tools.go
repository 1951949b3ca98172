package number_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/format"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/server"
	"github.com/joltsms/joltsms-mcp/internal/tools/common"
)

const numberIDDescription = "Number ID (UUID) or phone number (e.g. +16505551234, 650-555-1234 or (650) 555-1234)"

// RegisterNumberTools registers all number-related tools with the MCP server.
func RegisterNumberTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listNumbersTool := mcp.NewTool("joltsms_list_numbers",
		mcp.WithDescription(`List your active JoltSMS phone numbers. Returns phone number, status, service label, tags, message count, and subscription details.

Each number costs $50/month and receives unlimited inbound SMS with parsed OTP codes.`),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("limit",
			mcp.Description("Max numbers to return (1-10, default 10)"),
			mcp.Min(1),
			mcp.Max(10),
			mcp.DefaultNumber(joltsms.DefaultPageSize),
		),
	)

	s.AddTool(listNumbersTool, common.InstrumentedToolHandler("joltsms_list_numbers", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListNumbers(ctx, request, sc)
		}))

	getNumberTool := mcp.NewTool("joltsms_get_number",
		mcp.WithDescription(`Get full details for a single phone number, including service label, tags, notes, message counts, billing dates, and subscription status.

Accepts a UUID or phone number (e.g. "+16505551234", "650-555-1234", "(650) 555-1234").`),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("number_id",
			mcp.Required(),
			mcp.Description(numberIDDescription),
		),
	)

	s.AddTool(getNumberTool, common.InstrumentedToolHandler("joltsms_get_number", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetNumber(ctx, request, sc)
		}))

	// Write tools are hidden entirely in read-only mode
	if readOnly {
		return nil
	}

	if err := registerMetadataTools(s, sc); err != nil {
		return fmt.Errorf("failed to register metadata tools: %w", err)
	}

	if err := registerProvisioningTools(s, sc); err != nil {
		return fmt.Errorf("failed to register provisioning tools: %w", err)
	}

	return nil
}

type listNumbersArgs struct {
	Limit *int `json:"limit" validate:"omitnil,min=1,max=10"`
}

func handleListNumbers(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args listNumbersArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	page, err := sc.Client().ListNumbers(ctx, joltsms.ListNumbersParams{
		Limit: lo.FromPtrOr(args.Limit, joltsms.DefaultPageSize),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return mcp.NewToolResultText(format.NumberList(page.Data)), nil
}

type getNumberArgs struct {
	NumberID string `json:"number_id" validate:"required"`
}

func handleGetNumber(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args getNumberArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	n, err := lookupNumber(ctx, sc, args.NumberID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return mcp.NewToolResultText(format.NumberDetail(*n)), nil
}

// lookupNumber resolves input and fetches the matching number. A number that
// resolves but then drops out of the listing is reported by the caller's input.
func lookupNumber(ctx context.Context, sc *server.ServerContext, input string) (*joltsms.Number, error) {
	resolver := sc.Resolver()

	id, err := resolver.ResolveNumberID(ctx, input)
	if err != nil {
		return nil, err
	}

	n, err := resolver.FindNumber(ctx, id)
	if errors.Is(err, joltsms.ErrNotFound) {
		return nil, &joltsms.NumberNotFoundError{Input: input}
	}
	return n, err
}
