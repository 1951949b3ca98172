package joltsms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest captures what the test server saw.
type recordedRequest struct {
	method  string
	path    string
	query   map[string][]string
	header  http.Header
	body    []byte
	hasBody bool
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{
			method:  r.Method,
			path:    r.URL.Path,
			query:   r.URL.Query(),
			header:  r.Header.Clone(),
			body:    body,
			hasBody: len(body) > 0,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(baseURL, "jolt_test_key", opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(DefaultBaseURL, "")
	assert.Error(t, err)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := newTestClient(t, "https://api.example.com/")
	assert.Equal(t, "https://api.example.com", c.BaseURL())

	c = newTestClient(t, "")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestClient_ListNumbers(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{
		"data": [{"id": "n1", "phoneNumber": "+16505551234", "status": "ACTIVE", "tags": ["a"]}],
		"meta": {"hasMore": true, "nextCursor": "next", "total": 2, "limit": 10}
	}`)
	c := newTestClient(t, srv.URL+"/")

	page, err := c.ListNumbers(context.Background(), ListNumbersParams{})
	require.NoError(t, err)

	require.Len(t, page.Data, 1)
	assert.Equal(t, "+16505551234", page.Data[0].PhoneNumber)
	assert.Equal(t, "next", page.Cursor())

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/v1/numbers", req.path)
	assert.Equal(t, []string{"owned"}, req.query["scope"])
	assert.Equal(t, []string{"10"}, req.query["limit"])
	assert.NotContains(t, req.query, "cursor")
	assert.Equal(t, "Bearer jolt_test_key", req.header.Get("Authorization"))
	assert.Empty(t, req.header.Get("Content-Type"), "no content type without a body")
}

func TestClient_ListMessagesOmitsEmptyParams(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"data": [], "meta": {"hasMore": false}}`)
	c := newTestClient(t, srv.URL)

	_, err := c.ListMessages(context.Background(), ListMessagesParams{NumberID: "n1", Limit: 1})
	require.NoError(t, err)

	req := (*seen)[0]
	assert.Equal(t, "/v1/messages", req.path)
	assert.Equal(t, []string{"n1"}, req.query["numberId"])
	assert.Equal(t, []string{"1"}, req.query["limit"])
	assert.NotContains(t, req.query, "since")
	assert.NotContains(t, req.query, "from")
	assert.NotContains(t, req.query, "cursor")
}

func TestClient_RentNumber(t *testing.T) {
	tests := []struct {
		name          string
		areaCode      string
		wantArea      any
		wantPreferred bool
	}{
		{name: "with area code", areaCode: "650", wantArea: "650", wantPreferred: true},
		{name: "any area code", areaCode: "", wantArea: nil, wantPreferred: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := newTestServer(t, http.StatusOK, `{"success": true, "status": "PROVISIONING", "subscriptionId": "sub1"}`)
			c := newTestClient(t, srv.URL)

			resp, err := c.RentNumber(context.Background(), RentParams{AreaCode: tt.areaCode, IdempotencyKey: "key-1"})
			require.NoError(t, err)
			assert.True(t, resp.Success)
			assert.Equal(t, "sub1", resp.SubscriptionID)

			req := (*seen)[0]
			assert.Equal(t, http.MethodPost, req.method)
			assert.Equal(t, "/v1/numbers/rent", req.path)
			assert.Equal(t, "key-1", req.header.Get(IdempotencyHeader))
			assert.Equal(t, "application/json", req.header.Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(req.body, &body))
			assert.Equal(t, tt.wantArea, body["areaCode"])
			assert.Equal(t, tt.wantPreferred, body["preferredAreaCode"])
			assert.Equal(t, true, body["autoRenew"])
		})
	}
}

func TestClient_UpdateNumberSendsOnlyProvidedFields(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"id": "n1", "phoneNumber": "+16505551234"}`)
	c := newTestClient(t, srv.URL)

	empty := ""
	_, err := c.UpdateNumber(context.Background(), "n1", NumberUpdate{Notes: &empty})
	require.NoError(t, err)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/v1/numbers/n1", req.path)
	assert.JSONEq(t, `{"notes": ""}`, string(req.body))
}

func TestClient_CancelNumber(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"success": true, "message": "Auto-renew disabled"}`)
	c := newTestClient(t, srv.URL)

	resp, err := c.CancelNumber(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Auto-renew disabled", resp.Message)

	req := (*seen)[0]
	assert.Equal(t, "/v1/billing/subscriptions/sub-1/auto-renew", req.path)
	assert.JSONEq(t, `{"enabled": false}`, string(req.body))
}

func TestClient_MarkReadEndpoints(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"success": true, "messageId": "m1", "readAt": "2025-01-15T10:00:00Z", "count": 3}`)
	c := newTestClient(t, srv.URL)

	single, err := c.MarkMessageRead(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15T10:00:00Z", single.ReadAt)

	bulk, err := c.MarkAllMessagesRead(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, 3, bulk.Count)

	require.Len(t, *seen, 2)
	assert.Equal(t, http.MethodPut, (*seen)[0].method)
	assert.Equal(t, "/v1/messages/m1/read", (*seen)[0].path)
	assert.False(t, (*seen)[0].hasBody)
	assert.Equal(t, "/v1/messages/mark-all-read", (*seen)[1].path)
	assert.Equal(t, []string{"n1"}, (*seen)[1].query["numberId"])
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "message field", status: 400, body: `{"message": "Bad area code"}`, wantMessage: "Bad area code"},
		{name: "error field", status: 403, body: `{"error": "Forbidden"}`, wantMessage: "Forbidden"},
		{name: "message preferred over error", status: 400, body: `{"message": "m", "error": "e"}`, wantMessage: "m"},
		{name: "no body", status: 502, body: ``, wantMessage: "HTTP 502"},
		{name: "non-JSON body", status: 500, body: `<html>oops</html>`, wantMessage: "HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			c := newTestClient(t, srv.URL)

			_, err := c.ListSubscriptions(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)
			assert.Equal(t, tt.wantMessage, err.Error())

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, OpListSubscriptions, apiErr.Op)
		})
	}
}

func TestClient_PaymentRequired(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusPaymentRequired, `{"message": "Payment requires authentication", "hostedInvoiceUrl": "https://pay.example.com/inv_1"}`)
	c := newTestClient(t, srv.URL)

	_, err := c.RentNumber(context.Background(), RentParams{IdempotencyKey: "k"})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsPaymentRequired())
	assert.Equal(t, "https://pay.example.com/inv_1", apiErr.HostedInvoiceURL())
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := newTestClient(t, srv.URL, WithTimeout(50*time.Millisecond))

	_, err := c.ListSubscriptions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_CallerCancellationIsNotTimeout(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{}`)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListSubscriptions(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}
