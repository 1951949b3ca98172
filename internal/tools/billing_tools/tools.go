package billing_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/joltsms/joltsms-mcp/internal/format"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/server"
	"github.com/joltsms/joltsms-mcp/internal/tools/common"
)

// RegisterBillingTools registers billing tools with the MCP server. Every
// billing tool is read-only.
func RegisterBillingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	billingStatusTool := mcp.NewTool("joltsms_billing_status",
		mcp.WithDescription(`Check billing and subscription status for all your JoltSMS numbers.

Shows each subscription with billing health, price, renewal/cancellation dates, and auto-renew status.
Cross-references with phone numbers for easy identification.`),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("limit",
			mcp.Description("Max subscriptions to show (1-10, default 10)"),
			mcp.Min(1),
			mcp.Max(10),
			mcp.DefaultNumber(joltsms.DefaultPageSize),
		),
	)

	s.AddTool(billingStatusTool, common.InstrumentedToolHandler("joltsms_billing_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBillingStatus(ctx, request, sc)
		}))

	return nil
}

type billingStatusArgs struct {
	Limit *int `json:"limit" validate:"omitnil,min=1,max=10"`
}

// handleBillingStatus fetches subscriptions and the first page of numbers
// concurrently. Only that first page is used to label subscriptions; the
// rest fall back to their subscription ID.
func handleBillingStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args billingStatusArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	client := sc.Client()
	var (
		subs    *joltsms.SubscriptionList
		numbers *joltsms.ListResponse[joltsms.Number]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = client.ListSubscriptions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		numbers, err = client.ListNumbers(gctx, joltsms.ListNumbersParams{Limit: joltsms.DefaultPageSize})
		return err
	})
	if err := g.Wait(); err != nil {
		return common.ErrorResult(err), nil
	}

	text := format.BillingStatus(subs.Subscriptions, format.PhoneIndex(numbers.Data),
		lo.FromPtrOr(args.Limit, joltsms.DefaultPageSize))
	return mcp.NewToolResultText(text), nil
}
