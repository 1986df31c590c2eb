package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/tailortalk/tailortalk/internal/instrumentation"
)

// DefaultListingCap bounds the number of events returned by Upcoming.
const DefaultListingCap = 20

// API is the provider surface the Gateway depends on. *Client implements
// it against the real Google Calendar service; tests substitute a fake.
type API interface {
	FreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error)
	ListEvents(ctx context.Context, calendarID string, timeMin time.Time, timeMax time.Time, maxResults int64) ([]Event, error)
	InsertEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error)
}

// Recorder receives per-operation provider telemetry. The
// instrumentation package provides the production implementation; a nil
// Recorder disables recording.
type Recorder interface {
	RecordCalendarOperation(ctx context.Context, operation, status string, duration time.Duration)
}

// Gateway performs the assistant's calendar operations against one shared
// calendar. All calls are stateless request/response; booking is a
// check-then-act sequence with no transactional guarantee against
// concurrent external writers, which is acceptable at the calendar's low
// write rate and is surfaced to users as a conflict on the next attempt.
type Gateway struct {
	api        API
	calendarID string
	loc        *time.Location
	listingCap int64
	now        func() time.Time
	recorder   Recorder
}

// GatewayOption customizes Gateway construction.
type GatewayOption func(*Gateway)

// WithListingCap overrides the maximum number of events Upcoming returns.
func WithListingCap(cap int64) GatewayOption {
	return func(g *Gateway) {
		if cap > 0 {
			g.listingCap = cap
		}
	}
}

// WithClock overrides the gateway's time source. Used by tests.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.now = now
	}
}

// WithRecorder attaches provider operation telemetry.
func WithRecorder(r Recorder) GatewayOption {
	return func(g *Gateway) {
		g.recorder = r
	}
}

// NewGateway creates a Gateway over the given provider API for one shared
// calendar. Busy intervals and event times are reported in loc.
func NewGateway(api API, calendarID string, loc *time.Location, opts ...GatewayOption) *Gateway {
	if loc == nil {
		loc = time.Local
	}
	g := &Gateway{
		api:        api,
		calendarID: calendarID,
		loc:        loc,
		listingCap: DefaultListingCap,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Location returns the gateway's display timezone.
func (g *Gateway) Location() *time.Location {
	return g.loc
}

// observe wraps one provider call with a span and operation telemetry.
func (g *Gateway) observe(ctx context.Context, operation string, call func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartCalendarSpan(ctx, operation)
	defer span.End()

	start := time.Now()
	err := call(ctx)
	elapsed := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if g.recorder != nil {
		g.recorder.RecordCalendarOperation(ctx, operation, status, elapsed)
	}
	return err
}

// Busy returns the busy intervals of the shared calendar between start and
// end, converted to the display timezone. An empty result means the range
// is fully free.
func (g *Gateway) Busy(ctx context.Context, start, end time.Time) ([]TimeRange, error) {
	var intervals []TimeRange
	err := g.observe(ctx, instrumentation.CalendarOpFreeBusy, func(ctx context.Context) error {
		var callErr error
		intervals, callErr = g.api.FreeBusy(ctx, g.calendarID, start, end)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("availability query failed: %w", err)
	}

	local := make([]TimeRange, 0, len(intervals))
	for _, r := range intervals {
		local = append(local, TimeRange{
			Start: r.Start.In(g.loc),
			End:   r.End.In(g.loc),
		})
	}
	return local, nil
}

// Book creates an event on the shared calendar unless it overlaps an
// existing one. The overlap check lists events intersecting
// [input.Start, input.End]; any hit rejects the booking with the first
// conflicting event and nothing is created.
func (g *Gateway) Book(ctx context.Context, input BookingInput) (BookingResult, error) {
	if !input.End.After(input.Start) {
		return BookingResult{}, fmt.Errorf("booking end %s is not after start %s",
			input.End.Format(time.RFC3339), input.Start.Format(time.RFC3339))
	}

	var overlapping []Event
	err := g.observe(ctx, instrumentation.CalendarOpList, func(ctx context.Context) error {
		var callErr error
		overlapping, callErr = g.api.ListEvents(ctx, g.calendarID, input.Start, input.End, 0)
		return callErr
	})
	if err != nil {
		return BookingResult{}, fmt.Errorf("overlap check failed: %w", err)
	}
	if len(overlapping) > 0 {
		conflict := overlapping[0]
		conflict.Start = conflict.Start.In(g.loc)
		conflict.End = conflict.End.In(g.loc)
		return BookingResult{Conflict: &conflict}, nil
	}

	var created *Event
	err = g.observe(ctx, instrumentation.CalendarOpInsert, func(ctx context.Context) error {
		var callErr error
		created, callErr = g.api.InsertEvent(ctx, g.calendarID, EventInput{
			Summary:     input.Title,
			Description: input.Description,
			Start:       input.Start,
			End:         input.End,
			TimeZone:    g.loc.String(),
		})
		return callErr
	})
	if err != nil {
		return BookingResult{}, fmt.Errorf("booking failed: %w", err)
	}

	created.Start = created.Start.In(g.loc)
	created.End = created.End.In(g.loc)
	return BookingResult{Created: created}, nil
}

// Upcoming lists events on the shared calendar ordered by start time
// ascending. A nil start defaults to the current time; a nil end leaves
// the range open-ended. The result is capped at the configured listing cap.
func (g *Gateway) Upcoming(ctx context.Context, start, end *time.Time) ([]Event, error) {
	timeMin := g.now().In(g.loc)
	if start != nil {
		timeMin = *start
	}

	var timeMax time.Time
	if end != nil {
		timeMax = *end
	}

	var events []Event
	err := g.observe(ctx, instrumentation.CalendarOpList, func(ctx context.Context) error {
		var callErr error
		events, callErr = g.api.ListEvents(ctx, g.calendarID, timeMin, timeMax, g.listingCap)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("event listing failed: %w", err)
	}

	for i := range events {
		events[i].Start = events[i].Start.In(g.loc)
		events[i].End = events[i].End.In(g.loc)
	}
	return events, nil
}
