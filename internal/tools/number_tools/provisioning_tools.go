package number_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/format"
	"github.com/joltsms/joltsms-mcp/internal/idempotency"
	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/logging"
	"github.com/joltsms/joltsms-mcp/internal/server"
	"github.com/joltsms/joltsms-mcp/internal/tools/common"
)

func registerProvisioningTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	provisionNumberTool := mcp.NewTool("joltsms_provision_number",
		mcp.WithDescription(`Rent a new dedicated real-SIM US phone number ($50/month).

IMPORTANT: The user must have a payment method set up in the JoltSMS dashboard first.

Provisioning is async. The number may take seconds to minutes to become ACTIVE.
For specific area codes, provide the 3-digit code (e.g. "212" for New York).

If 3DS authentication is required, this tool returns a URL the user must visit to authorize payment.`),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("area_code",
			mcp.Description(`Preferred US area code (3 digits, e.g. "212"). Optional; omit for any available area.`),
			mcp.Pattern(`^\d{3}$`),
		),
	)

	s.AddTool(provisionNumberTool, common.InstrumentedToolHandler("joltsms_provision_number", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleProvisionNumber(ctx, request, sc)
		}))

	releaseNumberTool := mcp.NewTool("joltsms_release_number",
		mcp.WithDescription(`Cancel/release a phone number. The number stays active until the end of the current billing period.

Requires the subscription ID (from joltsms_list_numbers output).
This disables auto-renewal, so the number will be released when the period ends.`),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("subscription_id",
			mcp.Required(),
			mcp.Description("Subscription ID of the number to release (from joltsms_list_numbers)"),
		),
	)

	s.AddTool(releaseNumberTool, common.InstrumentedToolHandler("joltsms_release_number", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReleaseNumber(ctx, request, sc)
		}))

	return nil
}

type provisionNumberArgs struct {
	AreaCode string `json:"area_code" validate:"omitempty,len=3,number"`
}

// handleProvisionNumber rents a number under an idempotency token shared by
// every attempt at the same area code. The token is released only when the
// API accepts the request, so retries after a failure or a 3-D Secure
// challenge reuse it.
func handleProvisionNumber(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args provisionNumberArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	fingerprint := idempotency.Fingerprint(args.AreaCode)
	token, reused := sc.Idempotency().GetOrCreate(fingerprint)
	sc.Metrics().RecordIdempotencyLookup(ctx,
		lo.Ternary(reused, instrumentation.IdempotencyHit, instrumentation.IdempotencyMiss))

	sc.Logger().DebugContext(ctx, "provisioning number",
		logging.Tool("joltsms_provision_number"),
		"area_code", args.AreaCode,
		"idempotency_reused", reused,
	)

	resp, err := sc.Client().RentNumber(ctx, joltsms.RentParams{
		AreaCode:       args.AreaCode,
		IdempotencyKey: token,
	})
	if err != nil {
		if apiErr, ok := joltsms.AsAPIError(err); ok && apiErr.IsPaymentRequired() {
			if url := apiErr.HostedInvoiceURL(); url != "" {
				return mcp.NewToolResultText(format.PaymentRequired(url)), nil
			}
		}
		return common.ErrorResult(err), nil
	}

	if resp.Success {
		sc.Idempotency().Release(fingerprint)
	}

	return mcp.NewToolResultText(format.ProvisionStarted(resp)), nil
}

type releaseNumberArgs struct {
	SubscriptionID string `json:"subscription_id" validate:"required,opaqueid"`
}

func handleReleaseNumber(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args releaseNumberArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	resp, err := sc.Client().CancelNumber(ctx, args.SubscriptionID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return mcp.NewToolResultText(format.ReleaseScheduled(resp)), nil
}
