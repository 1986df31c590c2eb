package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tailortalk/tailortalk/internal/instrumentation"
	"github.com/tailortalk/tailortalk/internal/llm"
	"github.com/tailortalk/tailortalk/internal/logging"
	"github.com/tailortalk/tailortalk/internal/session"
)

const replyInternalError = "Sorry, internal error. Please try again."

// Route names recorded on turn spans.
const (
	routeNameToolExecution = "tool_execution"
	routeNameClarification = "clarification"
	routeNameOutput        = "output"
)

// Completer produces model text for a transcript. *llm.Client implements
// it; tests substitute scripted responses.
type Completer interface {
	CompleteOrDegrade(ctx context.Context, messages []llm.Message) string
}

// ToolDispatcher executes a named tool call. *calendar_tools.Dispatcher
// implements it.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (result string, known bool)
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	Reply                string
	ToolCallsMade        []string
	MessageCount         int
	PendingClarification bool

	// NewSession reports whether this turn created the session. Decided
	// by the registry under its lock, so concurrent first messages for
	// one user yield exactly one true.
	NewSession bool
}

// Agent drives conversation turns over a session registry, a model
// client and the tool dispatcher.
type Agent struct {
	completer  Completer
	dispatcher ToolDispatcher
	sessions   *session.Registry
	logger     *slog.Logger
	now        func() time.Time
}

// AgentOption customizes an Agent.
type AgentOption func(*Agent)

// WithClock overrides the time source used for prompts and session
// timestamps. Used by tests.
func WithClock(now func() time.Time) AgentOption {
	return func(a *Agent) {
		a.now = now
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New creates an Agent.
func New(completer Completer, dispatcher ToolDispatcher, sessions *session.Registry, opts ...AgentOption) *Agent {
	a := &Agent{
		completer:  completer,
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProcessTurn handles one user message end to end and returns the
// assistant's reply with turn metadata. The session lock is held for the
// whole turn so concurrent requests for the same user are serialized.
// Any panic below this point becomes a generic failure reply.
func (a *Agent) ProcessTurn(ctx context.Context, userID, message string) (result TurnResult) {
	userHash := logging.AnonymizeUserID(userID)

	ctx, span := instrumentation.StartTurnSpan(ctx, userHash)
	defer span.End()

	logger := a.logger
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	sess, created := a.sessions.GetOrCreate(userID)
	sess.Lock()
	defer sess.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("turn panicked: %v", r)
			instrumentation.SetSpanError(span, err)
			logger.ErrorContext(ctx, "turn processing panicked",
				logging.Operation("process_turn"),
				slog.String(logging.KeyUserHash, userHash),
				slog.Any("panic", r))
			result = TurnResult{
				Reply:                replyInternalError,
				MessageCount:         len(sess.Messages),
				PendingClarification: sess.PendingClarification,
				NewSession:           created,
			}
		}
	}()

	now := a.now()
	sess.Append(llm.RoleUser, message, now)

	reply := a.complete(ctx, sess)
	sess.Append(llm.RoleAssistant, reply, now)
	sess.PendingClarification = false

	var toolsUsed []string
	routeName := routeNameOutput

	switch route := Classify(reply).(type) {
	case RouteToolCall:
		routeName = routeNameToolExecution
		logger.InfoContext(ctx, "routing to tool execution",
			logging.Operation("route"),
			logging.Tool(route.Name),
			slog.String(logging.KeyUserHash, userHash))

		toolResult, known := a.dispatcher.Dispatch(ctx, route.Name, route.Arguments)
		instrumentation.AddSpanEvent(span, "tool dispatched",
			attribute.String(instrumentation.SpanAttrTool, route.Name))
		if known {
			toolsUsed = append(toolsUsed, route.Name)
			sess.RecordToolCall(route.Name, a.now())
		}

		// The tool result enters the transcript as observed data and the
		// model summarizes it in one follow-up call.
		sess.Append(llm.RoleUser, toolResult, a.now())
		followUp := a.complete(ctx, sess)
		sess.Append(llm.RoleAssistant, followUp, a.now())
		reply = followUp

	case RouteClarification:
		routeName = routeNameClarification
		logger.InfoContext(ctx, "routing to clarification",
			logging.Operation("route"),
			slog.String(logging.KeyUserHash, userHash))
		sess.PendingClarification = true

	case RoutePlainText:
		// The modeling reply is the final output.
	}

	span.SetAttributes(attribute.String(instrumentation.SpanAttrRoute, routeName))
	instrumentation.SetSpanSuccess(span)

	return TurnResult{
		Reply:                reply,
		ToolCallsMade:        toolsUsed,
		MessageCount:         len(sess.Messages),
		PendingClarification: sess.PendingClarification,
		NewSession:           created,
	}
}

// complete invokes the model with the system prompt prepended to the
// full transcript. Caller holds the session lock.
func (a *Agent) complete(ctx context.Context, sess *session.Session) string {
	transcript := sess.Transcript()
	messages := make([]llm.Message, 0, len(transcript)+1)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: BuildSystemPrompt(a.now()),
	})
	messages = append(messages, transcript...)
	return a.completer.CompleteOrDegrade(ctx, messages)
}
