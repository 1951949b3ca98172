package message_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/format"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/poller"
	"github.com/joltsms/joltsms-mcp/internal/server"
	"github.com/joltsms/joltsms-mcp/internal/tools/common"
)

const (
	defaultWaitTimeout  = 120
	defaultPollInterval = 5

	// otpLookback is how far back get_latest_otp looks without an explicit since.
	otpLookback = 10 * time.Minute
)

func registerOTPTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	waitForSMSTool := mcp.NewTool("joltsms_wait_for_sms",
		mcp.WithDescription(`Poll for an incoming SMS message on a specific number. This is the KEY tool for OTP verification workflows.

Typical workflow:
1. Trigger OTP on a website/app using the JoltSMS phone number
2. Call this tool with the number_id
3. The tool polls every few seconds until an SMS arrives or timeout
4. Returns the message body and parsed OTP code

Use from_filter to only match messages from a specific sender.
Default timeout is 120 seconds with 5-second polling intervals.`),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("number_id",
			mcp.Required(),
			mcp.Description(numberIDDescription),
		),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Max seconds to wait (10-300, default 120)"),
			mcp.Min(10),
			mcp.Max(300),
			mcp.DefaultNumber(defaultWaitTimeout),
		),
		mcp.WithNumber("poll_interval_seconds",
			mcp.Description("Seconds between polls (3-30, default 5)"),
			mcp.Min(3),
			mcp.Max(30),
			mcp.DefaultNumber(defaultPollInterval),
		),
		mcp.WithString("from_filter",
			mcp.Description("Only match SMS from this sender (partial match)"),
		),
	)

	s.AddTool(waitForSMSTool, common.InstrumentedToolHandler("joltsms_wait_for_sms", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleWaitForSMS(ctx, request, sc)
		}))

	getLatestOTPTool := mcp.NewTool("joltsms_get_latest_otp",
		mcp.WithDescription(`Get the most recent parsed OTP code from a phone number.

Convenience tool: checks recent messages (last 10 minutes by default) for a parsed verification code.
If no parsed code is found, returns the most recent message body for manual extraction.

Use joltsms_wait_for_sms if you need to wait for an OTP that hasn't arrived yet.`),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("number_id",
			mcp.Required(),
			mcp.Description(numberIDDescription),
		),
		mcp.WithString("since",
			mcp.Description("Only look at messages after this ISO 8601 datetime. Defaults to last 10 minutes."),
		),
	)

	s.AddTool(getLatestOTPTool, common.InstrumentedToolHandler("joltsms_get_latest_otp", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetLatestOTP(ctx, request, sc)
		}))

	return nil
}

type waitForSMSArgs struct {
	NumberID            string   `json:"number_id" validate:"required"`
	TimeoutSeconds      *float64 `json:"timeout_seconds" validate:"omitnil,min=10,max=300"`
	PollIntervalSeconds *float64 `json:"poll_interval_seconds" validate:"omitnil,min=3,max=30"`
	FromFilter          string   `json:"from_filter"`
}

func handleWaitForSMS(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args waitForSMSArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	numberID, err := sc.Resolver().ResolveNumberID(ctx, args.NumberID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	client := sc.Client()
	query := func(ctx context.Context, since time.Time) (*joltsms.Message, error) {
		page, err := client.ListMessages(ctx, joltsms.ListMessagesParams{
			NumberID: numberID,
			Since:    joltsms.FormatTimestamp(since),
			Limit:    1,
		})
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			return nil, nil
		}
		return &page.Data[0], nil
	}

	res, err := sc.Poller().Wait(ctx, poller.Options{
		Timeout:    seconds(lo.FromPtrOr(args.TimeoutSeconds, defaultWaitTimeout)),
		Interval:   seconds(lo.FromPtrOr(args.PollIntervalSeconds, defaultPollInterval)),
		FromFilter: args.FromFilter,
	}, query)

	switch res.State {
	case poller.Matched:
		return mcp.NewToolResultText(format.SMSReceived(res.Message, res.Elapsed, res.Polls)), nil
	case poller.TimedOut:
		return mcp.NewToolResultText(format.SMSTimedOut(res.Elapsed, res.Polls)), nil
	default:
		return common.ErrorResult(err), nil
	}
}

type getLatestOTPArgs struct {
	NumberID string `json:"number_id" validate:"required"`
	Since    string `json:"since"`
}

func handleGetLatestOTP(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	var args getLatestOTPArgs
	if err := common.BindArguments(request, &args); err != nil {
		return common.ErrorResult(err), nil
	}

	numberID, err := sc.Resolver().ResolveNumberID(ctx, args.NumberID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	since := args.Since
	if since == "" {
		since = joltsms.FormatTimestamp(sc.Clock().Now().Add(-otpLookback))
	}

	page, err := sc.Client().ListMessages(ctx, joltsms.ListMessagesParams{
		NumberID: numberID,
		Since:    since,
		Limit:    joltsms.DefaultPageSize,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return mcp.NewToolResultText(format.LatestOTP(page.Data)), nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
