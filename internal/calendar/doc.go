// Package calendar provides access to the shared Google Calendar.
//
// Client is a thin wrapper over the Google Calendar API offering the three
// provider operations the assistant needs: a free/busy query, an interval
// event listing, and event insertion. Gateway layers the assistant's
// semantics on top: availability checks in the display timezone,
// conflict-checked booking against the shared calendar, and capped
// upcoming-event listings.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx, tokenProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gw := calendar.NewGateway(client, calendarID, loc)
//	busy, err := gw.Busy(ctx, start, end)
package calendar
