package joltsms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
	"github.com/joltsms/joltsms-mcp/internal/logging"
)

const (
	// DefaultBaseURL is the production API origin.
	DefaultBaseURL = "https://api.joltsms.com"

	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is used when a listing does not specify a limit.
	DefaultPageSize = 10

	// IdempotencyHeader carries the idempotency token on rent requests.
	IdempotencyHeader = "X-Idempotency-Key"

	apiPrefix       = "/v1"
	maxResponseSize = 4 << 20
)

// Operation names used for spans, metrics and APIError.Op.
const (
	OpListNumbers       = "numbers.list"
	OpUpdateNumber      = "numbers.update"
	OpRentNumber        = "numbers.rent"
	OpListMessages      = "messages.list"
	OpMarkMessageRead   = "messages.read"
	OpMarkAllRead       = "messages.read_all"
	OpListSubscriptions = "billing.subscriptions"
	OpCancelNumber      = "billing.auto_renew"
)

// Client talks to the JoltSMS REST API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records upstream request metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for request debugging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseTransport replaces the transport beneath the auth and tracing layers.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.httpClient.Transport = newTransport(c.apiKey, rt)
		}
	}
}

// NewClient creates a client for the API at baseURL authenticated with apiKey.
// A trailing slash on baseURL is ignored; an empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Transport: newTransport(apiKey, http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API origin the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func newTransport(apiKey string, base http.RoundTripper) http.RoundTripper {
	auth := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: apiKey,
			TokenType:   "Bearer",
		}),
		Base: base,
	}
	return otelhttp.NewTransport(auth)
}

// ListNumbers returns a page of numbers owned by the account.
func (c *Client) ListNumbers(ctx context.Context, params ListNumbersParams) (*ListResponse[Number], error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q := url.Values{}
	q.Set("scope", "owned")
	q.Set("limit", strconv.Itoa(limit))
	if params.Cursor != "" {
		q.Set("cursor", params.Cursor)
	}

	var out ListResponse[Number]
	if err := c.do(ctx, OpListNumbers, http.MethodGet, "/numbers", request{query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNumber applies a partial update to the number's metadata.
func (c *Client) UpdateNumber(ctx context.Context, numberID string, update NumberUpdate) (*Number, error) {
	var out Number
	path := "/numbers/" + url.PathEscape(numberID)
	if err := c.do(ctx, OpUpdateNumber, http.MethodPut, path, request{body: update}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RentNumber starts asynchronous provisioning of a new number with auto-renew on.
func (c *Client) RentNumber(ctx context.Context, params RentParams) (*RentResponse, error) {
	body := struct {
		AreaCode          string `json:"areaCode,omitempty"`
		PreferredAreaCode bool   `json:"preferredAreaCode"`
		AutoRenew         bool   `json:"autoRenew"`
	}{
		AreaCode:          params.AreaCode,
		PreferredAreaCode: params.AreaCode != "",
		AutoRenew:         true,
	}

	req := request{body: body}
	if params.IdempotencyKey != "" {
		req.headers = map[string]string{IdempotencyHeader: params.IdempotencyKey}
	}

	var out RentResponse
	if err := c.do(ctx, OpRentNumber, http.MethodPost, "/numbers/rent", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelNumber disables auto-renew so the number lapses at period end.
func (c *Client) CancelNumber(ctx context.Context, subscriptionID string) (*CancelResponse, error) {
	body := map[string]bool{"enabled": false}
	path := "/billing/subscriptions/" + url.PathEscape(subscriptionID) + "/auto-renew"

	var out CancelResponse
	if err := c.do(ctx, OpCancelNumber, http.MethodPost, path, request{body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSubscriptions returns every billing subscription on the account.
func (c *Client) ListSubscriptions(ctx context.Context) (*SubscriptionList, error) {
	var out SubscriptionList
	if err := c.do(ctx, OpListSubscriptions, http.MethodGet, "/billing/subscriptions", request{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages returns a page of inbound messages, newest first.
func (c *Client) ListMessages(ctx context.Context, params ListMessagesParams) (*ListResponse[Message], error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	setIfNotEmpty(q, "numberId", params.NumberID)
	setIfNotEmpty(q, "since", params.Since)
	setIfNotEmpty(q, "cursor", params.Cursor)
	setIfNotEmpty(q, "from", params.From)

	var out ListResponse[Message]
	if err := c.do(ctx, OpListMessages, http.MethodGet, "/messages", request{query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkMessageRead marks a single message as read.
func (c *Client) MarkMessageRead(ctx context.Context, messageID string) (*MarkReadResponse, error) {
	var out MarkReadResponse
	path := "/messages/" + url.PathEscape(messageID) + "/read"
	if err := c.do(ctx, OpMarkMessageRead, http.MethodPut, path, request{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkAllMessagesRead marks every unread message on a number as read.
// An empty numberID marks every message on the account.
func (c *Client) MarkAllMessagesRead(ctx context.Context, numberID string) (*MarkAllReadResponse, error) {
	q := url.Values{}
	setIfNotEmpty(q, "numberId", numberID)

	var out MarkAllReadResponse
	if err := c.do(ctx, OpMarkAllRead, http.MethodPut, "/messages/mark-all-read", request{query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type request struct {
	query   url.Values
	body    any
	headers map[string]string
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// do performs one API call, recording a span and request metrics around it.
func (c *Client) do(ctx context.Context, op, method, path string, req request, out any) error {
	start := time.Now()
	ctx, span := instrumentation.StartAPISpan(ctx, op)
	defer span.End()

	statusCode, err := c.send(ctx, op, method, path, req, out)

	if c.metrics != nil {
		c.metrics.RecordAPIRequest(ctx, op, statusCode, time.Since(start))
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("api request failed",
			logging.Operation(op),
			slog.Int("status_code", statusCode),
			logging.Err(err))
		return err
	}

	instrumentation.SetSpanSuccess(span)
	c.logger.Debug("api request completed",
		logging.Operation(op),
		slog.Int("status_code", statusCode),
		logging.Duration(time.Since(start)))
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, req request, out any) (int, error) {
	target := c.baseURL + apiPrefix + path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return 0, fmt.Errorf("%w after %d seconds", ErrTimeout, int(c.timeout.Seconds()))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return resp.StatusCode, fmt.Errorf("%w after %d seconds", ErrTimeout, int(c.timeout.Seconds()))
		}
		return resp.StatusCode, fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, newAPIError(op, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
