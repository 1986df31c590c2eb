package calendar_tools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailortalk/tailortalk/internal/calendar"
)

var testNow = time.Date(2025, 6, 25, 10, 30, 0, 0, time.UTC)

func at(hour int) time.Time {
	return time.Date(2025, 6, 25, hour, 0, 0, 0, time.UTC)
}

type fakeAPI struct {
	busy     []calendar.TimeRange
	events   []calendar.Event
	failWith error
	inserted []calendar.EventInput
}

func (f *fakeAPI) FreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.TimeRange, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.busy, nil
}

func (f *fakeAPI) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64) ([]calendar.Event, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.events, nil
}

func (f *fakeAPI) InsertEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.Event, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.inserted = append(f.inserted, input)
	return &calendar.Event{
		ID:       "evt-1",
		Summary:  input.Summary,
		Start:    input.Start,
		End:      input.End,
		HTMLLink: "https://calendar.google.com/event?eid=evt-1",
	}, nil
}

func newTestTools(api *fakeAPI) *Tools {
	gw := calendar.NewGateway(api, "shared", time.UTC,
		calendar.WithClock(func() time.Time { return testNow }))
	return New(gw, WithClock(func() time.Time { return testNow }))
}

func TestCheckAvailabilityFullyFree(t *testing.T) {
	tools := newTestTools(&fakeAPI{})

	text, err := tools.CheckAvailability(context.Background(), map[string]any{
		"start_date": "2025-06-25",
		"end_date":   "2025-06-25",
	})
	require.NoError(t, err)
	assert.Equal(t, "✅ You're fully available between 2025-06-25 and 2025-06-25.", text)
}

func TestCheckAvailabilityBusySlots(t *testing.T) {
	tools := newTestTools(&fakeAPI{
		busy: []calendar.TimeRange{
			{Start: at(14), End: at(15)},
			{Start: at(16), End: at(17)},
		},
	})

	text, err := tools.CheckAvailability(context.Background(), map[string]any{
		"start_date": "2025-06-25",
		"end_date":   "2025-06-26",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "🗓️ Here are your busy slots:")
	assert.Contains(t, text, "• 2025-06-25 14:00 to 2025-06-25 15:00")
	assert.Contains(t, text, "• 2025-06-25 16:00 to 2025-06-25 17:00")
}

func TestCheckAvailabilityMissingArgs(t *testing.T) {
	tools := newTestTools(&fakeAPI{})

	text, err := tools.CheckAvailability(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, text, "Error checking availability")
}

func TestCheckAvailabilityProviderError(t *testing.T) {
	tools := newTestTools(&fakeAPI{failWith: fmt.Errorf("backend unavailable")})

	text, err := tools.CheckAvailability(context.Background(), map[string]any{
		"start_date": "2025-06-25",
		"end_date":   "2025-06-26",
	})
	require.Error(t, err)
	assert.Contains(t, text, "Error checking availability")
	assert.Contains(t, text, "backend unavailable")
}

func TestBookSlotSuccess(t *testing.T) {
	api := &fakeAPI{}
	tools := newTestTools(api)

	text, err := tools.BookSlot(context.Background(), map[string]any{
		"start_time": "2025-06-26T14:00:00",
		"duration":   "90m",
		"title":      "Design review",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "✅ Meeting 'Design review' booked from 14:00 to 15:30 on 2025-06-26.")
	assert.Contains(t, text, "📎 Event Link: https://calendar.google.com/event?eid=evt-1")

	require.Len(t, api.inserted, 1)
	assert.Equal(t, 90*time.Minute, api.inserted[0].End.Sub(api.inserted[0].Start))
}

func TestBookSlotDefaults(t *testing.T) {
	api := &fakeAPI{}
	tools := newTestTools(api)

	text, err := tools.BookSlot(context.Background(), map[string]any{
		"start_time": "2025-06-26 14:00",
	})
	require.NoError(t, err)
	assert.Contains(t, text, DefaultEventTitle)

	// No duration defaults to one hour.
	require.Len(t, api.inserted, 1)
	assert.Equal(t, time.Hour, api.inserted[0].End.Sub(api.inserted[0].Start))
}

func TestBookSlotConflict(t *testing.T) {
	api := &fakeAPI{
		events: []calendar.Event{
			{Summary: "Standup", Start: at(14), End: at(15)},
		},
	}
	tools := newTestTools(api)

	text, err := tools.BookSlot(context.Background(), map[string]any{
		"start_time": "2025-06-25T14:30:00",
		"duration":   "1h",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "⚠️ Overlap detected: 'Standup' already exists at 2025-06-25 14:00.")
	assert.Empty(t, api.inserted, "conflicting booking must not create an event")
}

func TestBookSlotMissingStart(t *testing.T) {
	tools := newTestTools(&fakeAPI{})

	text, err := tools.BookSlot(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, text, "start_time is required")
}

func TestListEventsEmpty(t *testing.T) {
	tools := newTestTools(&fakeAPI{})

	text, err := tools.ListEvents(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "No upcoming events found.", text)

	text, err = tools.ListEvents(context.Background(), map[string]any{
		"start_date": "2025-06-25",
		"end_date":   "2025-06-26",
	})
	require.NoError(t, err)
	assert.Equal(t, "No upcoming events found in the given range.", text)
}

func TestListEventsFormatting(t *testing.T) {
	tools := newTestTools(&fakeAPI{
		events: []calendar.Event{
			{
				Summary:     "Team sync",
				Description: "Weekly status",
				Start:       at(14),
				End:         at(15),
				HTMLLink:    "https://calendar.google.com/event?eid=sync",
			},
			{
				Summary: "Conference",
				Start:   time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC),
				End:     time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
				AllDay:  true,
			},
		},
	})

	text, err := tools.ListEvents(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, text, "📅 Upcoming events:")
	assert.Contains(t, text, "1. Team sync on 2025-06-25, 14:00 – 15:00")
	assert.Contains(t, text, "Weekly status")
	assert.Contains(t, text, "Link: https://calendar.google.com/event?eid=sync")
	assert.Contains(t, text, "2. Conference on 2025-06-27, All-day")
}

type recordedCall struct {
	tool   string
	status string
}

type fakeRecorder struct {
	calls []recordedCall
}

func (f *fakeRecorder) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	f.calls = append(f.calls, recordedCall{tool: tool, status: status})
}

func TestDispatcherKnownTool(t *testing.T) {
	rec := &fakeRecorder{}
	d := NewDispatcher(newTestTools(&fakeAPI{}), WithRecorder(rec))

	text, known := d.Dispatch(context.Background(), ToolListEvents, map[string]any{})
	assert.True(t, known)
	assert.Equal(t, "No upcoming events found.", text)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, recordedCall{tool: ToolListEvents, status: "success"}, rec.calls[0])
}

func TestDispatcherUnknownTool(t *testing.T) {
	rec := &fakeRecorder{}
	d := NewDispatcher(newTestTools(&fakeAPI{}), WithRecorder(rec))

	text, known := d.Dispatch(context.Background(), "delete_everything", nil)
	assert.False(t, known)
	assert.Equal(t, "⚠️ Unknown tool: 'delete_everything'", text)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "error", rec.calls[0].status)
}

func TestDispatcherHandlerError(t *testing.T) {
	rec := &fakeRecorder{}
	d := NewDispatcher(newTestTools(&fakeAPI{failWith: fmt.Errorf("boom")}), WithRecorder(rec))

	text, known := d.Dispatch(context.Background(), ToolCheckAvailability, map[string]any{
		"start_date": "2025-06-25",
		"end_date":   "2025-06-26",
	})
	assert.True(t, known)
	assert.Contains(t, text, "Error checking availability")

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "error", rec.calls[0].status)
}

func TestDispatcherRecoversPanic(t *testing.T) {
	d := NewDispatcher(newTestTools(&fakeAPI{}))
	d.handlers["explode"] = func(ctx context.Context, args map[string]any) (string, error) {
		panic("kaboom")
	}

	text, known := d.Dispatch(context.Background(), "explode", nil)
	assert.True(t, known)
	assert.Contains(t, text, "Error executing tool 'explode'")
	assert.Contains(t, text, "kaboom")
}
