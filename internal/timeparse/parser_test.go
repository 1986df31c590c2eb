package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, 2025-06-25 10:30 UTC.
var testNow = time.Date(2025, time.June, 25, 10, 30, 0, 0, time.UTC)

func TestParseStart_Structured(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "ISO with T",
			input:    "2025-06-26T15:00:00",
			expected: time.Date(2025, time.June, 26, 15, 0, 0, 0, time.UTC),
		},
		{
			name:     "ISO with trailing Z treated as local",
			input:    "2025-06-26T15:00:00Z",
			expected: time.Date(2025, time.June, 26, 15, 0, 0, 0, time.UTC),
		},
		{
			name:     "space separated date and time",
			input:    "2025-06-26 15:00",
			expected: time.Date(2025, time.June, 26, 15, 0, 0, 0, time.UTC),
		},
		{
			name:     "bare date resolves to midnight",
			input:    "2025-06-26",
			expected: time.Date(2025, time.June, 26, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStart(tt.input, testNow, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseStart_Empty(t *testing.T) {
	_, err := ParseStart("", testNow, time.UTC)
	assert.Error(t, err)
}

func TestParseStart_NaturalFallback(t *testing.T) {
	got, err := ParseStart("tomorrow", testNow, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 26, 9, 0, 0, 0, time.UTC), got)
}

func TestParseNatural(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected time.Time
	}{
		{
			name:     "today",
			expr:     "today",
			expected: time.Date(2025, time.June, 25, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "tomorrow",
			expr:     "tomorrow",
			expected: time.Date(2025, time.June, 26, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "yesterday",
			expr:     "yesterday",
			expected: time.Date(2025, time.June, 24, 9, 0, 0, 0, time.UTC),
		},
		{
			// testNow is a Wednesday; Monday already passed, so roll to
			// the next occurrence.
			name:     "past weekday rolls forward",
			expr:     "monday",
			expected: time.Date(2025, time.June, 30, 9, 0, 0, 0, time.UTC),
		},
		{
			// Friday is still ahead this week.
			name:     "upcoming weekday stays in this week",
			expr:     "friday",
			expected: time.Date(2025, time.June, 27, 9, 0, 0, 0, time.UTC),
		},
		{
			// "next friday" = this week's Friday + 7.
			name:     "next qualifier adds a week",
			expr:     "next friday",
			expected: time.Date(2025, time.July, 4, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "same weekday as today counts as this week",
			expr:     "wednesday",
			expected: time.Date(2025, time.June, 25, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "next week",
			expr:     "next week",
			expected: time.Date(2025, time.July, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "this week",
			expr:     "this week",
			expected: time.Date(2025, time.June, 25, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "unrecognized returns now",
			expr:     "whenever suits",
			expected: testNow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseNatural(tt.expr, testNow))
		})
	}
}

func TestParseNatural_MultipleWeekdaysDeterministic(t *testing.T) {
	// Monday is listed before Tuesday, so it wins on every call.
	expected := time.Date(2025, time.June, 30, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		assert.Equal(t, expected, ParseNatural("monday or tuesday", testNow))
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
	}{
		{name: "hours", input: "2h", expected: 2 * time.Hour},
		{name: "fractional hours", input: "1.5h", expected: 90 * time.Minute},
		{name: "minutes", input: "90m", expected: 90 * time.Minute},
		{name: "min suffix", input: "45min", expected: 45 * time.Minute},
		{name: "bare number is hours", input: "2", expected: 2 * time.Hour},
		{name: "uppercase", input: "2H", expected: 2 * time.Hour},
		{name: "unparsable defaults to one hour", input: "xyz", expected: time.Hour},
		{name: "empty defaults to one hour", input: "", expected: time.Hour},
		{name: "negative defaults to one hour", input: "-2h", expected: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDuration(tt.input))
		})
	}
}

func TestParseRangeEnd_DateOnlyExpandsToEndOfDay(t *testing.T) {
	got, err := ParseRangeEnd("2025-06-26", testNow, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 26, 23, 59, 59, 0, time.UTC), got)
}

func TestParseRangeEnd_WithTimeKeepsTime(t *testing.T) {
	got, err := ParseRangeEnd("2025-06-26T15:00:00", testNow, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 26, 15, 0, 0, 0, time.UTC), got)
}
