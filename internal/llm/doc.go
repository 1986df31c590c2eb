// Package llm provides a client for the OpenRouter chat-completions API.
//
// The client holds a pool of API keys and picks one per call through a
// pluggable KeySelector, so the selection policy (random or round-robin)
// is swappable and testable with a seeded source. Calls are single-attempt
// with a bounded timeout; failures surface as user-facing degraded-service
// text at the conversational boundary rather than as errors that could
// crash a turn.
package llm
