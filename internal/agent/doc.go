// Package agent implements the conversational turn state machine. One
// turn appends the user's message to the session transcript, asks the
// model for a reply, classifies that reply as a tool call, a
// clarification question or plain text, and routes accordingly. Tool
// results feed back into the transcript as user-role observations and
// trigger exactly one follow-up model call.
//
// Classification is explicit and tagged (RouteToolCall, RouteClarification,
// RoutePlainText) so the routing rules are testable in isolation. The
// clarification keyword check is a deliberate heuristic over free-form
// model text; it can mis-trigger on coincidental substrings, and JSON
// tool-call detection always takes precedence over it.
package agent
