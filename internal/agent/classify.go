package agent

import (
	"encoding/json"
	"strings"
)

// clarificationKeywords mark a model reply as a clarification question.
// Substring matching over lowercased text, preserved as documented
// behavior even though it can mis-trigger.
var clarificationKeywords = []string{"specify", "unclear", "missing", "duration"}

// Route is the tagged classification of one model reply.
type Route interface {
	isRoute()
}

// RouteToolCall means the reply is a structured tool invocation.
type RouteToolCall struct {
	Name      string
	Arguments map[string]any
}

// RouteClarification means the reply asks the user for more detail.
type RouteClarification struct{}

// RoutePlainText means the reply goes to the user as-is.
type RoutePlainText struct{}

func (RouteToolCall) isRoute() {}

func (RouteClarification) isRoute() {}

func (RoutePlainText) isRoute() {}

type toolCallEnvelope struct {
	ToolCall  *string        `json:"tool_call"`
	Arguments map[string]any `json:"arguments"`
}

// Classify routes a model reply. A JSON object carrying both a
// "tool_call" name and an "arguments" map routes to tool execution and
// takes precedence over the keyword check, so a tool call that happens
// to contain a clarification keyword still executes. Non-JSON text
// containing a clarification keyword routes to clarification; anything
// else is plain output.
func Classify(content string) Route {
	var envelope toolCallEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err == nil {
		if envelope.ToolCall != nil && envelope.Arguments != nil {
			return RouteToolCall{Name: *envelope.ToolCall, Arguments: envelope.Arguments}
		}
	}

	lower := strings.ToLower(content)
	for _, keyword := range clarificationKeywords {
		if strings.Contains(lower, keyword) {
			return RouteClarification{}
		}
	}

	return RoutePlainText{}
}
