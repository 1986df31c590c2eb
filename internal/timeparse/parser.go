package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDuration is used when a duration expression cannot be parsed.
const DefaultDuration = time.Hour

// defaultHour is the hour of day assigned to date-only natural expressions
// ("tomorrow", "next monday").
const defaultHour = 9

// layouts tried in order for structured start-time input.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// weekdays is scanned in order; when an expression names several days
// ("monday or tuesday") the first listed name wins.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// ParseStart resolves a start-time expression to a concrete timestamp in loc.
// Resolution order: RFC3339/ISO with time, "YYYY-MM-DD HH:MM", bare date
// (midnight), then natural language relative to now. Natural-language
// fallback never fails; an unrecognized expression resolves to now.
func ParseStart(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty start time")
	}
	if loc == nil {
		loc = time.Local
	}

	// The original input sometimes carries a trailing Z with a local wall
	// time; treat it as local rather than UTC.
	trimmed := strings.TrimSuffix(s, "Z")

	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, nil
		}
	}

	if t, err := time.ParseInLocation("2006-01-02", trimmed, loc); err == nil {
		return t, nil
	}

	return ParseNatural(s, now.In(loc)), nil
}

// ParseNatural resolves a natural-language time expression against now.
// Recognized forms: "today"/"now", "tomorrow", "yesterday", expressions
// containing "week" ("next week" advances seven days), and weekday names
// with an optional "next" qualifier. A weekday that has already occurred
// this week (strictly before today) rolls forward to the next occurrence;
// "next" always adds exactly seven days on top. Unrecognized input returns
// now unchanged.
func ParseNatural(expr string, now time.Time) time.Time {
	expr = strings.ToLower(strings.TrimSpace(expr))

	atDefaultHour := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), defaultHour, 0, 0, 0, t.Location())
	}

	switch expr {
	case "today", "now":
		return atDefaultHour(now)
	case "tomorrow":
		return atDefaultHour(now.AddDate(0, 0, 1))
	case "yesterday":
		return atDefaultHour(now.AddDate(0, 0, -1))
	}

	hasNext := strings.Contains(expr, "next")

	for _, wd := range weekdays {
		if !strings.Contains(expr, wd.name) {
			continue
		}
		ahead := int(wd.day) - int(now.Weekday())
		if ahead < 0 {
			ahead += 7
		}
		if hasNext {
			ahead += 7
		}
		return atDefaultHour(now.AddDate(0, 0, ahead))
	}

	if strings.Contains(expr, "week") {
		if hasNext {
			return atDefaultHour(now.AddDate(0, 0, 7))
		}
		return atDefaultHour(now)
	}

	return now
}

// ParseDuration resolves a duration token. Suffix "h" means hours
// (fractional allowed), "m" or "min" means minutes; a bare number is read
// as hours. Anything else resolves to DefaultDuration. This default is a
// documented policy: the conversational layer asks for clarification
// before booking, so an unparsable duration here only happens when the
// model emitted one anyway.
func ParseDuration(s string) time.Duration {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultDuration
	}

	parse := func(num string, unit time.Duration) (time.Duration, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil || f <= 0 {
			return 0, false
		}
		return time.Duration(f * float64(unit)), true
	}

	switch {
	case strings.HasSuffix(s, "min"):
		if d, ok := parse(strings.TrimSuffix(s, "min"), time.Minute); ok {
			return d
		}
	case strings.HasSuffix(s, "m"):
		if d, ok := parse(strings.TrimSuffix(s, "m"), time.Minute); ok {
			return d
		}
	case strings.HasSuffix(s, "h"):
		if d, ok := parse(strings.TrimSuffix(s, "h"), time.Hour); ok {
			return d
		}
	default:
		if d, ok := parse(s, time.Hour); ok {
			return d
		}
	}

	return DefaultDuration
}

// ParseRangeStart resolves a range boundary that may be date-only,
// expanding a bare date to the start of that day (00:00:00).
func ParseRangeStart(s string, now time.Time, loc *time.Location) (time.Time, error) {
	return ParseStart(s, now, loc)
}

// ParseRangeEnd resolves a range boundary that may be date-only, expanding
// a bare date to the end of that day (23:59:59).
func ParseRangeEnd(s string, now time.Time, loc *time.Location) (time.Time, error) {
	t, err := ParseStart(s, now, loc)
	if err != nil {
		return time.Time{}, err
	}
	if isDateOnly(s) {
		t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	}
	return t, nil
}

func isDateOnly(s string) bool {
	s = strings.TrimSpace(s)
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
