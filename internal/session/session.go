package session

import (
	"sync"
	"time"

	"github.com/tailortalk/tailortalk/internal/llm"
)

// ToolCall records one tool invocation made on behalf of a session.
type ToolCall struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// Session is the conversation state for a single user. Callers must hold
// the session lock (Lock/Unlock) while reading or mutating its fields;
// the Registry only guards the map, not the sessions themselves.
type Session struct {
	mu sync.Mutex

	UserID               string
	Messages             []llm.Message
	PendingClarification bool
	ToolCalls            []ToolCall
	Context              map[string]string
	CreatedAt            time.Time
	LastInteraction      time.Time
}

func newSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:          userID,
		Context:         make(map[string]string),
		CreatedAt:       now,
		LastInteraction: now,
	}
}

// Lock acquires the per-session lock. One chat turn holds it for the
// whole request so concurrent turns for the same user are serialized.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Append adds a message to the transcript and bumps LastInteraction.
func (s *Session) Append(role, content string, now time.Time) {
	s.Messages = append(s.Messages, llm.Message{Role: role, Content: content})
	s.LastInteraction = now
}

// RecordToolCall notes that the named tool ran during this session.
func (s *Session) RecordToolCall(name string, now time.Time) {
	s.ToolCalls = append(s.ToolCalls, ToolCall{Name: name, At: now})
	s.LastInteraction = now
}

// Transcript returns a copy of the message history so callers can hand
// it to the model without racing later appends.
func (s *Session) Transcript() []llm.Message {
	out := make([]llm.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Summary is a read-only snapshot used by the sessions listing endpoint.
type Summary struct {
	UserID               string    `json:"user_id"`
	MessageCount         int       `json:"message_count"`
	ToolCallCount        int       `json:"tool_call_count"`
	PendingClarification bool      `json:"pending_clarification"`
	CreatedAt            time.Time `json:"created_at"`
	LastInteraction      time.Time `json:"last_interaction"`
}

// Snapshot captures the session's summary under its lock.
func (s *Session) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		UserID:               s.UserID,
		MessageCount:         len(s.Messages),
		ToolCallCount:        len(s.ToolCalls),
		PendingClarification: s.PendingClarification,
		CreatedAt:            s.CreatedAt,
		LastInteraction:      s.LastInteraction,
	}
}
