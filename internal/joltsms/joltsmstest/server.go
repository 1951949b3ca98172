// Package joltsmstest provides an in-memory JoltSMS API for tests.
//
// The fake serves the same /v1 routes as the real API over httptest, keeps
// numbers, messages and subscriptions in memory, and records every request
// it receives so tests can assert on the exact calls a tool made.
package joltsmstest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
)

// APIKey is the key clients from APIClient authenticate with.
const APIKey = "jolt_sk_test"

// Request is one call the fake received.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Route names one endpoint, in http.ServeMux pattern form.
type Route string

const (
	RouteListNumbers       Route = "GET /v1/numbers"
	RouteUpdateNumber      Route = "PUT /v1/numbers/{id}"
	RouteRentNumber        Route = "POST /v1/numbers/rent"
	RouteListMessages      Route = "GET /v1/messages"
	RouteMarkRead          Route = "PUT /v1/messages/{id}/read"
	RouteMarkAllRead       Route = "PUT /v1/messages/mark-all-read"
	RouteListSubscriptions Route = "GET /v1/billing/subscriptions"
	RouteAutoRenew         Route = "POST /v1/billing/subscriptions/{id}/auto-renew"
)

type failure struct {
	status int
	body   string
}

type pendingMessage struct {
	afterQueries int
	msg          joltsms.Message
}

// Server is a fake JoltSMS API.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	numbers       []joltsms.Number
	messages      []joltsms.Message
	pending       []pendingMessage
	subscriptions []joltsms.Subscription
	rentStatus    int
	rentBody      string
	failures      map[Route]failure
	requests      []Request
	messageQuery  int
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		rentStatus: http.StatusOK,
		rentBody:   `{"success":true,"status":"PROVISIONING","subscriptionId":"sub-new"}`,
		failures:   make(map[Route]failure),
	}

	mux := http.NewServeMux()
	s.handle(mux, RouteListNumbers, s.listNumbers)
	s.handle(mux, RouteUpdateNumber, s.updateNumber)
	s.handle(mux, RouteRentNumber, s.rentNumber)
	s.handle(mux, RouteListMessages, s.listMessages)
	s.handle(mux, RouteMarkRead, s.markRead)
	s.handle(mux, RouteMarkAllRead, s.markAllRead)
	s.handle(mux, RouteListSubscriptions, s.listSubscriptions)
	s.handle(mux, RouteAutoRenew, s.autoRenew)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// APIClient returns a client for the fake.
func (s *Server) APIClient(t testing.TB, opts ...joltsms.Option) *joltsms.Client {
	t.Helper()
	c, err := joltsms.NewClient(s.URL, APIKey, opts...)
	if err != nil {
		t.Fatalf("joltsms.NewClient() error = %v", err)
	}
	return c
}

// AddNumbers appends owned numbers in listing order.
func (s *Server) AddNumbers(numbers ...joltsms.Number) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numbers = append(s.numbers, numbers...)
}

// AddMessages stores messages, which must be given newest first.
func (s *Server) AddMessages(messages ...joltsms.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages...)
}

// DeliverAfter makes msg visible once the message listing has been queried
// afterQueries times.
func (s *Server) DeliverAfter(afterQueries int, msg joltsms.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingMessage{afterQueries: afterQueries, msg: msg})
}

// AddSubscriptions stores billing subscriptions.
func (s *Server) AddSubscriptions(subs ...joltsms.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, subs...)
}

// SetRentResponse replaces the canned rent response.
func (s *Server) SetRentResponse(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rentStatus = status
	s.rentBody = body
}

// Fail makes every request to route answer with status and body.
func (s *Server) Fail(route Route, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the requests received for one method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Number returns the stored number with the given ID.
func (s *Server) Number(id string) (joltsms.Number, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.numbers {
		if n.ID == id {
			return n, true
		}
	}
	return joltsms.Number{}, false
}

func (s *Server) handle(mux *http.ServeMux, route Route, h func(w http.ResponseWriter, r *http.Request, body []byte)) {
	mux.HandleFunc(string(route), func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		f, failing := s.failures[route]
		s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
			return
		}
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		h(w, r, body)
	})
}

func (s *Server) listNumbers(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(s.numbers, r.URL.Query()))
}

func (s *Server) updateNumber(w http.ResponseWriter, r *http.Request, body []byte) {
	var update joltsms.NumberUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.numbers {
		n := &s.numbers[i]
		if n.ID != r.PathValue("id") {
			continue
		}
		if update.ServiceName != nil {
			n.ServiceName = *update.ServiceName
		}
		if update.Tags != nil {
			n.Tags = *update.Tags
		}
		if update.Notes != nil {
			n.Notes = *update.Notes
		}
		writeJSON(w, http.StatusOK, n)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Number not found"})
}

func (s *Server) rentNumber(w http.ResponseWriter, _ *http.Request, _ []byte) {
	s.mu.Lock()
	status, body := s.rentStatus, s.rentBody
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// listMessages filters like the real API: numberId and from by equality,
// since by timestamp order.
func (s *Server) listMessages(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messageQuery++
	var still []pendingMessage
	for _, p := range s.pending {
		if s.messageQuery > p.afterQueries {
			s.messages = append([]joltsms.Message{p.msg}, s.messages...)
		} else {
			still = append(still, p)
		}
	}
	s.pending = still

	q := r.URL.Query()
	var matched []joltsms.Message
	for _, m := range s.messages {
		if id := q.Get("numberId"); id != "" && m.NumberID != id {
			continue
		}
		if from := q.Get("from"); from != "" && m.From != from {
			continue
		}
		if since := q.Get("since"); since != "" && m.ReceivedAt < since {
			continue
		}
		matched = append(matched, m)
	}
	writeJSON(w, http.StatusOK, paginate(matched, q))
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == r.PathValue("id") {
			s.messages[i].IsRead = true
			writeJSON(w, http.StatusOK, joltsms.MarkReadResponse{
				Success:   true,
				MessageID: s.messages[i].ID,
				ReadAt:    "2025-01-15T10:30:00.000Z",
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Message not found"})
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	numberID := r.URL.Query().Get("numberId")
	count := 0
	for i := range s.messages {
		m := &s.messages[i]
		if m.IsRead || (numberID != "" && m.NumberID != numberID) {
			continue
		}
		m.IsRead = true
		count++
	}
	writeJSON(w, http.StatusOK, joltsms.MarkAllReadResponse{
		Success: true,
		Count:   count,
		Message: fmt.Sprintf("%d messages marked as read", count),
	})
}

func (s *Server) listSubscriptions(w http.ResponseWriter, _ *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subscriptions
	if subs == nil {
		subs = []joltsms.Subscription{}
	}
	writeJSON(w, http.StatusOK, joltsms.SubscriptionList{Subscriptions: subs})
}

func (s *Server) autoRenew(w http.ResponseWriter, r *http.Request, _ []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subscriptions {
		if s.subscriptions[i].ID == r.PathValue("id") {
			s.subscriptions[i].CancelAtPeriodEnd = true
			writeJSON(w, http.StatusOK, joltsms.CancelResponse{
				Success: true,
				Message: "Auto-renew disabled. The number will be released on " + joltsms.DatePart(s.subscriptions[i].CurrentPeriodEnd) + ".",
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Subscription not found"})
}

// paginate serves items[cursor:cursor+limit]. Cursors are decimal offsets.
func paginate[T any](items []T, q url.Values) joltsms.ListResponse[T] {
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = joltsms.DefaultPageSize
	}
	offset, _ := strconv.Atoi(q.Get("cursor"))
	offset = min(max(offset, 0), len(items))
	end := min(offset+limit, len(items))

	page := joltsms.ListResponse[T]{
		Data: append([]T{}, items[offset:end]...),
		Meta: joltsms.ListMeta{Total: len(items), Limit: limit},
	}
	if end < len(items) {
		page.Meta.HasMore = true
		page.Meta.NextCursor = strconv.Itoa(end)
	}
	return page
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
