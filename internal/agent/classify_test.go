package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyToolCall(t *testing.T) {
	route := Classify(`{"tool_call": "book_slot", "arguments": {"start_time": "2025-06-26 15:00", "duration": "1h"}}`)

	tc, ok := route.(RouteToolCall)
	require.True(t, ok)
	assert.Equal(t, "book_slot", tc.Name)
	assert.Equal(t, "1h", tc.Arguments["duration"])
}

func TestClassifyToolCallPrecedesKeywords(t *testing.T) {
	// "missing" appears inside the JSON but the tool call wins.
	route := Classify(`{"tool_call": "list_events", "arguments": {"note": "missing end date"}}`)
	_, ok := route.(RouteToolCall)
	assert.True(t, ok)

	route = Classify(`{"tool_call":"list_events","arguments":{}}`)
	_, ok = route.(RouteToolCall)
	assert.True(t, ok)
}

func TestClassifyClarification(t *testing.T) {
	for _, content := range []string{
		"Please specify a duration, is the event for 1 hour or 2 hours?",
		"Your request is unclear to me.",
		"The end date is missing.",
		"What Duration should I use?",
	} {
		route := Classify(content)
		_, ok := route.(RouteClarification)
		assert.True(t, ok, "expected clarification for %q", content)
	}
}

func TestClassifyPlainText(t *testing.T) {
	for _, content := range []string{
		"You're free all afternoon tomorrow.",
		"Hello! How can I help with your calendar?",
	} {
		route := Classify(content)
		_, ok := route.(RoutePlainText)
		assert.True(t, ok, "expected plain text for %q", content)
	}
}

func TestClassifyMalformedJSON(t *testing.T) {
	// Broken JSON mentioning a keyword falls through to clarification.
	route := Classify(`{"tool_call": "book_slot", "arguments": {missing`)
	_, ok := route.(RouteClarification)
	assert.True(t, ok)

	// JSON without both keys is not a tool call.
	route = Classify(`{"tool_call": "book_slot"}`)
	_, ok = route.(RoutePlainText)
	assert.True(t, ok)
}
