// Package poller waits for an inbound SMS by querying at a fixed interval
// until a matching message arrives or a deadline passes.
//
// A wait moves from Polling to exactly one terminal state: Matched, TimedOut
// or Error. Timing out is a normal outcome and is reported through Result,
// not as an error. Query failures end the wait immediately without retry.
package poller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joltsms/joltsms-mcp/internal/clock"
	"github.com/joltsms/joltsms-mcp/internal/instrumentation"
	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/logging"
)

// State is the position of a wait in its state machine.
type State int

const (
	Polling State = iota
	Matched
	TimedOut
	Error
)

func (s State) String() string {
	switch s {
	case Polling:
		return "polling"
	case Matched:
		return "matched"
	case TimedOut:
		return "timed_out"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// QueryFunc returns the most recent message received at or after since,
// or nil when there is none.
type QueryFunc func(ctx context.Context, since time.Time) (*joltsms.Message, error)

// Options bound a single wait.
type Options struct {
	// Timeout is the total wall-clock budget for the wait.
	Timeout time.Duration

	// Interval is the pause between queries.
	Interval time.Duration

	// FromFilter, when set, must be a substring of the sender for a message to match.
	FromFilter string

	// Since excludes messages received earlier. Zero means the moment Wait starts.
	Since time.Time
}

// Result describes how a wait ended.
type Result struct {
	State   State
	Message *joltsms.Message
	Elapsed time.Duration
	Polls   int
	Since   time.Time
}

// Poller runs waits against an injected clock.
type Poller struct {
	clock   clock.Clock
	logger  logging.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock injects the time source and sleep primitive.
func WithClock(c clock.Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// WithLogger sets the logger for per-poll debug output.
func WithLogger(l logging.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records wait outcomes.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// New creates a Poller using the system clock.
func New(opts ...Option) *Poller {
	p := &Poller{
		clock:  clock.NewSystem(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait queries until a message matches, the timeout is reached, or a query
// fails. At least one query is always issued, even when Timeout < Interval.
// The tick whose next wake-up would reach the deadline ends the wait without
// sleeping, so a wait with no traffic issues ceil(Timeout/Interval) queries.
//
// A non-nil error is returned only in the Error state; the Result still
// carries the poll count and elapsed time reached before the failure.
func (p *Poller) Wait(ctx context.Context, opts Options, query QueryFunc) (Result, error) {
	if opts.Interval <= 0 {
		return Result{State: Error}, fmt.Errorf("poll interval must be positive: %w", joltsms.ErrValidation)
	}
	if opts.Timeout <= 0 {
		return Result{State: Error}, fmt.Errorf("timeout must be positive: %w", joltsms.ErrValidation)
	}

	start := p.clock.Now()
	since := opts.Since
	if since.IsZero() {
		since = start
	}

	ctx, span := instrumentation.StartSpan(ctx, "sms.wait",
		attribute.String("joltsms.from_filter", opts.FromFilter),
		attribute.Float64("joltsms.timeout_seconds", opts.Timeout.Seconds()))
	defer span.End()

	res := Result{State: Polling, Since: since}

	for res.State == Polling {
		res.Polls++
		msg, err := query(ctx, since)
		res.Elapsed = p.clock.Now().Sub(start)

		instrumentation.AddSpanEvent(span, "poll",
			attribute.Int(instrumentation.SpanAttrPolls, res.Polls),
			attribute.Bool("message_present", msg != nil))

		switch {
		case err != nil:
			res.State = Error
			p.finish(ctx, res, err)
			return res, err

		case msg != nil && matchesSender(msg, opts.FromFilter):
			res.State = Matched
			res.Message = msg

		case res.Elapsed+opts.Interval >= opts.Timeout:
			res.State = TimedOut

		default:
			if msg != nil {
				p.logger.Debug("message ignored by sender filter",
					logging.KeyPolls, res.Polls,
					"filter", opts.FromFilter)
			}
			if err := p.clock.Sleep(ctx, opts.Interval); err != nil {
				res.State = Error
				res.Elapsed = p.clock.Now().Sub(start)
				p.finish(ctx, res, err)
				return res, err
			}
		}
	}

	p.finish(ctx, res, nil)
	return res, nil
}

func (p *Poller) finish(ctx context.Context, res Result, err error) {
	outcome := instrumentation.WaitOutcomeError
	switch res.State {
	case Matched:
		outcome = instrumentation.WaitOutcomeMatched
	case TimedOut:
		outcome = instrumentation.WaitOutcomeTimedOut
	}
	p.metrics.RecordSMSWait(ctx, outcome, res.Polls)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrPolls, res.Polls),
		attribute.String(instrumentation.SpanAttrStatus, res.State.String()))
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	p.logger.Debug("sms wait finished",
		logging.KeyStatus, res.State.String(),
		logging.KeyPolls, res.Polls,
		logging.Duration(res.Elapsed),
		logging.Err(err))
}

func matchesSender(msg *joltsms.Message, filter string) bool {
	return filter == "" || strings.Contains(msg.From, filter)
}
