// Package timeparse converts loosely-structured date, time and duration
// expressions into concrete timestamps and intervals.
//
// The package accepts strict ISO/RFC3339 input, the common
// "YYYY-MM-DD HH:MM" form, bare dates, and a small set of natural-language
// expressions ("tomorrow", weekday names, "next week"). All functions are
// pure: relative expressions are resolved against an explicit reference
// time passed by the caller, never against the wall clock.
//
// Duration parsing is deliberately forgiving. An expression that cannot be
// understood resolves to one hour rather than an error, so a booking
// request is never rejected for a malformed duration alone.
package timeparse
