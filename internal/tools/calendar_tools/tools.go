package calendar_tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tailortalk/tailortalk/internal/calendar"
	"github.com/tailortalk/tailortalk/internal/logging"
	"github.com/tailortalk/tailortalk/internal/timeparse"
)

// Tool names as they appear in model-emitted tool calls.
const (
	ToolCheckAvailability = "check_availability"
	ToolBookSlot          = "book_slot"
	ToolListEvents        = "list_events"
)

// DefaultEventTitle is used when a booking request carries no title.
const DefaultEventTitle = "TailorTalk Meeting"

const (
	displayTimeLayout = "2006-01-02 15:04"
	displayDateLayout = "2006-01-02"
	clockLayout       = "15:04"
)

// Handler executes one tool against loosely structured arguments. The
// returned text is always suitable as a user-facing reply; a non-nil
// error accompanies failure text and drives logging and metrics only.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tools wraps the calendar gateway with argument normalization and
// result formatting for the three assistant operations.
type Tools struct {
	gateway *calendar.Gateway
	logger  *slog.Logger
	now     func() time.Time
}

// ToolsOption customizes Tools construction.
type ToolsOption func(*Tools)

// WithClock overrides the time source used for relative expressions and
// listing defaults. Used by tests.
func WithClock(now func() time.Time) ToolsOption {
	return func(t *Tools) {
		t.now = now
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) ToolsOption {
	return func(t *Tools) {
		t.logger = logger
	}
}

// New creates the tool set over the given gateway.
func New(gateway *calendar.Gateway, opts ...ToolsOption) *Tools {
	t := &Tools{
		gateway: gateway,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handlers returns the tool name to handler mapping used by the
// dispatcher and the MCP registration.
func (t *Tools) Handlers() map[string]Handler {
	return map[string]Handler{
		ToolCheckAvailability: t.CheckAvailability,
		ToolBookSlot:          t.BookSlot,
		ToolListEvents:        t.ListEvents,
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// CheckAvailability reports busy intervals between start_date and
// end_date. Date-only boundaries expand to full days.
func (t *Tools) CheckAvailability(ctx context.Context, args map[string]any) (string, error) {
	startArg := stringArg(args, "start_date")
	endArg := stringArg(args, "end_date")
	if startArg == "" || endArg == "" {
		return "Error checking availability: start_date and end_date are required", fmt.Errorf("missing date range")
	}

	now := t.now()
	loc := t.gateway.Location()

	start, err := timeparse.ParseRangeStart(startArg, now, loc)
	if err != nil {
		return fmt.Sprintf("Error checking availability: %v", err), err
	}
	end, err := timeparse.ParseRangeEnd(endArg, now, loc)
	if err != nil {
		return fmt.Sprintf("Error checking availability: %v", err), err
	}

	t.logger.InfoContext(ctx, "checking availability",
		logging.Tool(ToolCheckAvailability),
		slog.Time("start", start),
		slog.Time("end", end))

	busy, err := t.gateway.Busy(ctx, start, end)
	if err != nil {
		return fmt.Sprintf("Error checking availability: %v", err), err
	}

	if len(busy) == 0 {
		return fmt.Sprintf("✅ You're fully available between %s and %s.", startArg, endArg), nil
	}

	var b strings.Builder
	b.WriteString("🗓️ Here are your busy slots:")
	for _, slot := range busy {
		fmt.Fprintf(&b, "\n• %s to %s",
			slot.Start.Format(displayTimeLayout),
			slot.End.Format(displayTimeLayout))
	}
	return b.String(), nil
}

// BookSlot books a meeting at start_time for the given duration. Missing
// duration defaults to one hour, missing title to DefaultEventTitle. A
// conflicting event rejects the booking and names the conflict.
func (t *Tools) BookSlot(ctx context.Context, args map[string]any) (string, error) {
	startArg := stringArg(args, "start_time")
	if startArg == "" {
		return "Error booking slot: start_time is required", fmt.Errorf("missing start_time")
	}

	now := t.now()
	loc := t.gateway.Location()

	start, err := timeparse.ParseStart(startArg, now, loc)
	if err != nil {
		return fmt.Sprintf("Error booking slot: %v", err), err
	}
	duration := timeparse.ParseDuration(stringArg(args, "duration"))
	end := start.Add(duration)

	title := stringArg(args, "title")
	if title == "" {
		title = DefaultEventTitle
	}

	t.logger.InfoContext(ctx, "booking slot",
		logging.Tool(ToolBookSlot),
		slog.Time("start", start),
		slog.Duration("event_duration", duration))

	result, err := t.gateway.Book(ctx, calendar.BookingInput{
		Title:       title,
		Description: stringArg(args, "description"),
		Start:       start,
		End:         end,
	})
	if err != nil {
		return fmt.Sprintf("Error booking slot: %v", err), err
	}

	if result.Conflict != nil {
		conflictTitle := result.Conflict.Summary
		if conflictTitle == "" {
			conflictTitle = "Unnamed Event"
		}
		return fmt.Sprintf("⚠️ Overlap detected: '%s' already exists at %s. Please choose a different time.",
			conflictTitle, result.Conflict.Start.Format(displayTimeLayout)), nil
	}

	created := result.Created
	reply := fmt.Sprintf("✅ Meeting '%s' booked from %s to %s on %s.",
		title,
		created.Start.Format(clockLayout),
		created.End.Format(clockLayout),
		created.Start.Format(displayDateLayout))
	if created.HTMLLink != "" {
		reply += fmt.Sprintf("\n📎 Event Link: %s", created.HTMLLink)
	}
	return reply, nil
}

// ListEvents lists upcoming events, optionally bounded by start_date and
// end_date. With no range the listing starts at the current time.
func (t *Tools) ListEvents(ctx context.Context, args map[string]any) (string, error) {
	startArg := stringArg(args, "start_date")
	endArg := stringArg(args, "end_date")

	now := t.now()
	loc := t.gateway.Location()

	var start, end *time.Time
	if startArg != "" {
		parsed, err := timeparse.ParseRangeStart(startArg, now, loc)
		if err != nil {
			return fmt.Sprintf("Error listing events: %v", err), err
		}
		start = &parsed
	}
	if endArg != "" {
		parsed, err := timeparse.ParseRangeEnd(endArg, now, loc)
		if err != nil {
			return fmt.Sprintf("Error listing events: %v", err), err
		}
		end = &parsed
	}

	t.logger.InfoContext(ctx, "listing events", logging.Tool(ToolListEvents))

	events, err := t.gateway.Upcoming(ctx, start, end)
	if err != nil {
		return fmt.Sprintf("Error listing events: %v", err), err
	}

	if len(events) == 0 {
		if startArg != "" || endArg != "" {
			return "No upcoming events found in the given range.", nil
		}
		return "No upcoming events found.", nil
	}

	var b strings.Builder
	b.WriteString("📅 Upcoming events:")
	for i, ev := range events {
		title := ev.Summary
		if title == "" {
			title = "No Title"
		}
		fmt.Fprintf(&b, "\n%d. %s on %s, %s", i+1, title,
			ev.Start.Format(displayDateLayout), formatEventTime(ev))
		if ev.Description != "" {
			fmt.Fprintf(&b, "\n   %s", ev.Description)
		}
		if ev.HTMLLink != "" {
			fmt.Fprintf(&b, "\n   Link: %s", ev.HTMLLink)
		}
	}
	return b.String(), nil
}

func formatEventTime(ev calendar.Event) string {
	if ev.AllDay {
		return "All-day"
	}
	return fmt.Sprintf("%s – %s", ev.Start.Format(clockLayout), ev.End.Format(clockLayout))
}
