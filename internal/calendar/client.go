package calendar

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/tailortalk/tailortalk/internal/google"
)

// Client wraps the Google Calendar service.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client authenticated through the given
// token provider.
func NewClient(ctx context.Context, provider google.TokenProvider) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	httpClient, err := google.NewHTTPClient(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to build authenticated HTTP client: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// FreeBusy returns the busy intervals of a calendar within a time range.
func (c *Client) FreeBusy(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]TimeRange, error) {
	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	cal, ok := result.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("calendar %s missing from freebusy response", calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy query failed: %s", cal.Errors[0].Reason)
	}

	var busy []TimeRange
	for _, interval := range cal.Busy {
		start, err := time.Parse(time.RFC3339, interval.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, interval.End)
		if err != nil {
			continue
		}
		busy = append(busy, TimeRange{Start: start, End: end})
	}

	return busy, nil
}

// ListEvents lists events in a calendar ordered by start time. A zero
// timeMax leaves the range open-ended into the future. maxResults caps the
// number of returned events.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin time.Time, timeMax time.Time, maxResults int64) ([]Event, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	result, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []Event
	for _, item := range result.Items {
		events = append(events, toEvent(item))
	}

	return events, nil
}

// InsertEvent creates a new calendar event and returns the created event,
// including its HTML link.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: tz,
		},
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	ev := toEvent(created)
	return &ev, nil
}
