package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the three calendar tools with the MCP
// server so agent hosts can call them over stdio, bypassing the chat
// loop.
func RegisterMCPTools(s *mcpserver.MCPServer, tools *Tools) error {
	checkAvailabilityTool := mcp.NewTool(ToolCheckAvailability,
		mcp.WithDescription("Check busy intervals on the shared calendar within a date range"),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Range start. ISO datetime or date ('2025-07-01T09:00:00' or '2025-07-01'); bare dates expand to start of day."),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("Range end. ISO datetime or date; bare dates expand to end of day."),
		),
	)
	s.AddTool(checkAvailabilityTool, adaptHandler(tools.CheckAvailability))

	bookSlotTool := mcp.NewTool(ToolBookSlot,
		mcp.WithDescription("Book a meeting on the shared calendar unless the slot conflicts with an existing event"),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Start time. ISO datetime, 'YYYY-MM-DD HH:MM', or natural language ('tomorrow', 'next monday')."),
		),
		mcp.WithString("duration",
			mcp.Description("Duration token such as '2h', '90m' or '45min'. Defaults to 1 hour."),
		),
		mcp.WithString("title",
			mcp.Description("Event title. Defaults to a generic meeting title."),
		),
		mcp.WithString("description",
			mcp.Description("Optional event description."),
		),
	)
	s.AddTool(bookSlotTool, adaptHandler(tools.BookSlot))

	listEventsTool := mcp.NewTool(ToolListEvents,
		mcp.WithDescription("List upcoming events on the shared calendar, ordered by start time"),
		mcp.WithString("start_date",
			mcp.Description("Optional range start; defaults to the current time."),
		),
		mcp.WithString("end_date",
			mcp.Description("Optional range end; omit for an open-ended listing."),
		),
	)
	s.AddTool(listEventsTool, adaptHandler(tools.ListEvents))

	return nil
}

func adaptHandler(h Handler) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := h(ctx, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}
