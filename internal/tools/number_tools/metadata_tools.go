package number_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/format"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/server"
	"github.com/joltsms/joltsms-mcp/internal/tools/common"
)

func registerMetadataTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	updateNumberTool := mcp.NewTool("joltsms_update_number",
		mcp.WithDescription(`Update metadata on a phone number: set a service label, tags, or notes.

Only provided fields are updated. Omitted fields remain unchanged.
Pass an empty array [] to clear tags, or an empty string "" to clear notes.

Examples:
  update_number("+16505551234", service_name="PayPal", tags=["production"])
  update_number("+16505551234", notes="Linked to acme@company.com")`),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("number_id",
			mcp.Required(),
			mcp.Description(numberIDDescription),
		),
		mcp.WithString("service_name",
			mcp.Description(`Service/platform label (e.g. "PayPal", "Discord Backup"). Max 100 chars.`),
			mcp.MinLength(1),
			mcp.MaxLength(100),
		),
		mcp.WithArray("tags",
			mcp.Description(`Tags for categorization (e.g. ["production", "paypal"]). Max 20 tags, 50 chars each. Pass [] to clear.`),
			mcp.WithStringItems(mcp.MinLength(1), mcp.MaxLength(50)),
			mcp.MaxItems(20),
		),
		mcp.WithString("notes",
			mcp.Description(`Free-form notes (e.g. "Linked to acme@company.com"). Max 1000 chars. Pass "" to clear.`),
			mcp.MaxLength(1000),
		),
	)

	s.AddTool(updateNumberTool, common.InstrumentedToolHandler("joltsms_update_number", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateNumber(ctx, request, sc)
		}))

	return nil
}

type updateNumberArgs struct {
	NumberID    string    `json:"number_id" validate:"required"`
	ServiceName *string   `json:"service_name" validate:"omitnil,min=1,max=100"`
	Tags        *[]string `json:"tags" validate:"omitnil,max=20,dive,min=1,max=50"`
	Notes       *string   `json:"notes" validate:"omitnil,max=1000"`
}

func handleUpdateNumber(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args updateNumberArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	numberID, err := sc.Resolver().ResolveNumberID(ctx, args.NumberID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	update := joltsms.NumberUpdate{
		ServiceName: args.ServiceName,
		Tags:        args.Tags,
		Notes:       args.Notes,
	}
	if update.Empty() {
		return mcp.NewToolResultText(format.NothingToSave), nil
	}

	updated, err := sc.Client().UpdateNumber(ctx, numberID, update)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	phone := lo.CoalesceOrEmpty(updated.PhoneNumber, args.NumberID)
	return mcp.NewToolResultText(format.NumberUpdated(phone, update)), nil
}
