package billing_tools

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/joltsms/joltsmstest"
	"github.com/joltsms/joltsms-mcp/internal/server"
)

func newTestServer(t *testing.T, api *joltsmstest.Server, readOnly bool) *mcpserver.MCPServer {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), api.APIClient(t), server.WithReadOnly(readOnly))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("joltsms-test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterBillingTools(s, sc, readOnly))
	return s
}

func callBillingStatus(t *testing.T, s *mcpserver.MCPServer, args map[string]any) (string, bool) {
	t.Helper()
	tool := s.GetTool("joltsms_billing_status")
	require.NotNil(t, tool)

	req := mcp.CallToolRequest{}
	req.Params.Name = "joltsms_billing_status"
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, result.IsError
}

func TestRegisterBillingTools_ReadOnly(t *testing.T) {
	s := newTestServer(t, joltsmstest.NewServer(t), true)
	assert.NotNil(t, s.GetTool("joltsms_billing_status"), "billing status is available in read-only mode")
}

func TestBillingStatus(t *testing.T) {
	api := joltsmstest.NewServer(t)
	api.AddNumbers(joltsms.Number{ID: "n-1", PhoneNumber: "+16505551234", Status: "ACTIVE"})
	api.AddSubscriptions(
		joltsms.Subscription{
			ID:               "sub-1",
			NumberID:         "n-1",
			BillingHealth:    "healthy",
			BasePriceDisplay: "$45.00",
			CurrentPeriodEnd: "2025-02-15T00:00:00.000Z",
		},
		joltsms.Subscription{
			ID:                "sub-2",
			NumberID:          "n-unknown",
			BillingHealth:     "past_due",
			CurrentPeriodEnd:  "2025-03-01T00:00:00.000Z",
			CancelAtPeriodEnd: true,
		},
	)
	s := newTestServer(t, api, false)

	text, isErr := callBillingStatus(t, s, map[string]any{})
	require.False(t, isErr, text)
	assert.Equal(t, "2 subscription(s):\n"+
		"1. +16505551234 | healthy | $45.00/mo | renews: 2025-02-15 | auto-renew: on\n"+
		"2. sub-2 | past_due | $50.00/mo | cancels: 2025-03-01 | auto-renew: off\n"+
		"(Showing 2 of 2)", text)

	assert.Len(t, api.RequestsTo(http.MethodGet, "/v1/billing/subscriptions"), 1)
	numberReqs := api.RequestsTo(http.MethodGet, "/v1/numbers")
	require.Len(t, numberReqs, 1)
	assert.Equal(t, "10", numberReqs[0].Query.Get("limit"))
}

func TestBillingStatus_Limit(t *testing.T) {
	api := joltsmstest.NewServer(t)
	for i := 1; i <= 4; i++ {
		api.AddSubscriptions(joltsms.Subscription{
			ID:               fmt.Sprintf("sub-%d", i),
			BillingHealth:    "healthy",
			CurrentPeriodEnd: "2025-02-15T00:00:00.000Z",
		})
	}
	s := newTestServer(t, api, false)

	text, isErr := callBillingStatus(t, s, map[string]any{"limit": 2})
	require.False(t, isErr, text)
	assert.Contains(t, text, "4 subscription(s):")
	assert.Contains(t, text, "2. sub-2")
	assert.NotContains(t, text, "sub-3")
	assert.Contains(t, text, "(Showing 2 of 4)")
}

func TestBillingStatus_NoSubscriptions(t *testing.T) {
	s := newTestServer(t, joltsmstest.NewServer(t), false)

	text, isErr := callBillingStatus(t, s, map[string]any{})
	assert.False(t, isErr)
	assert.Equal(t, "No active subscriptions found. Use joltsms_provision_number to rent a number.", text)
}

func TestBillingStatus_Errors(t *testing.T) {
	tests := []struct {
		name  string
		route joltsmstest.Route
		body  string
		want  string
	}{
		{
			name:  "subscriptions fail",
			route: joltsmstest.RouteListSubscriptions,
			body:  `{"error":"Billing unavailable"}`,
			want:  "Error: Billing unavailable",
		},
		{
			name:  "numbers fail",
			route: joltsmstest.RouteListNumbers,
			body:  `{}`,
			want:  "Error: HTTP 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := joltsmstest.NewServer(t)
			api.Fail(tt.route, http.StatusInternalServerError, tt.body)
			s := newTestServer(t, api, false)

			text, isErr := callBillingStatus(t, s, map[string]any{})
			assert.True(t, isErr)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestBillingStatus_InvalidLimit(t *testing.T) {
	api := joltsmstest.NewServer(t)
	s := newTestServer(t, api, false)

	text, isErr := callBillingStatus(t, s, map[string]any{"limit": 0})
	assert.True(t, isErr)
	assert.Equal(t, "Error: limit must be at least 1", text)
	assert.Empty(t, api.Requests())
}
