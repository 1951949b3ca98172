package joltsms

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrInvalidFormat means an identifier or phone number could not be parsed.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrNotFound means resolution exhausted the listing without a match.
	ErrNotFound = errors.New("not found")

	// ErrTimeout means an outbound request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrValidation means the caller supplied an invalid parameter combination.
	ErrValidation = errors.New("validation error")

	// ErrUpstream matches every *APIError.
	ErrUpstream = errors.New("upstream error")
)

// APIError is a non-2xx response from the JoltSMS API.
type APIError struct {
	// Op is the client operation that failed (e.g., "numbers.list")
	Op string

	// StatusCode is the HTTP status returned by the API
	StatusCode int

	// Message is the API's "message" or "error" field, or "HTTP <code>"
	Message string

	// Body is the raw response body
	Body []byte
}

// Error returns the API message verbatim so it can be shown to the user.
func (e *APIError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrUpstream) true for any APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrUpstream
}

// IsPaymentRequired reports whether the API asked for payment authorisation.
func (e *APIError) IsPaymentRequired() bool {
	return e.StatusCode == http.StatusPaymentRequired
}

// HostedInvoiceURL returns the hosted payment page from the error body, if any.
func (e *APIError) HostedInvoiceURL() string {
	var body struct {
		HostedInvoiceURL string `json:"hostedInvoiceUrl"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	return body.HostedInvoiceURL
}

func newAPIError(op string, statusCode int, body []byte) *APIError {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &parsed)

	msg := parsed.Message
	if msg == "" {
		msg = parsed.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", statusCode)
	}
	return &APIError{
		Op:         op,
		StatusCode: statusCode,
		Message:    msg,
		Body:       body,
	}
}

// PhoneFormatError reports input that is not a recognisable US phone number.
type PhoneFormatError struct {
	Input string
}

func (e *PhoneFormatError) Error() string {
	return fmt.Sprintf("invalid phone number: %q (expected US 10-digit or E.164)", e.Input)
}

func (e *PhoneFormatError) Unwrap() error {
	return ErrInvalidFormat
}

// NumberNotFoundError reports that no owned number matches Input.
type NumberNotFoundError struct {
	Input string
}

func (e *NumberNotFoundError) Error() string {
	return fmt.Sprintf("no active number matching %q", e.Input)
}

func (e *NumberNotFoundError) Unwrap() error {
	return ErrNotFound
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
