// Package calendar_tools exposes the assistant's three calendar
// operations as named tools: check_availability, book_slot and
// list_events. Each tool normalizes loosely structured arguments,
// calls the calendar gateway and formats a human-readable result.
//
// Tools always answer with text. Provider failures, bad arguments and
// booking conflicts all come back as descriptive strings so the
// conversational layer can feed them to the model without special
// casing. The same handlers back both the chat dispatcher and the MCP
// registration in mcp.go.
package calendar_tools
