package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventInput represents the input for creating a calendar event.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Event represents a simplified calendar event.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	HTMLLink    string
}

// TimeRange represents a busy interval.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// BookingInput describes a requested booking on the shared calendar.
type BookingInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// BookingResult is the outcome of a booking attempt. Exactly one of
// Created and Conflict is set: Conflict carries the first existing event
// that intersects the requested interval, in which case nothing was
// created.
type BookingResult struct {
	Created  *Event
	Conflict *Event
}

// toEvent converts a Google Calendar event to an Event.
func toEvent(item *calendar.Event) Event {
	if item == nil {
		return Event{}
	}

	ev := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		HTMLLink:    item.HtmlLink,
	}

	if item.Start != nil {
		if item.Start.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
				ev.Start = t
			}
		} else if item.Start.Date != "" {
			ev.AllDay = true
			if t, err := time.Parse("2006-01-02", item.Start.Date); err == nil {
				ev.Start = t
			}
		}
	}

	if item.End != nil {
		if item.End.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
				ev.End = t
			}
		} else if item.End.Date != "" {
			if t, err := time.Parse("2006-01-02", item.End.Date); err == nil {
				ev.End = t
			}
		}
	}

	return ev
}
