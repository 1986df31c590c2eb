// Package session holds per-user conversation state for the assistant.
//
// The Registry is an explicit, injected object rather than package-level
// state. Sessions are in-process only: they live until the process exits
// or a caller clears them. Each session carries its own lock so the chat
// handler can serialize turns per user while different users proceed
// concurrently.
package session
