package calendar_tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tailortalk/tailortalk/internal/instrumentation"
	"github.com/tailortalk/tailortalk/internal/logging"
)

// Recorder receives tool invocation telemetry. The instrumentation
// package provides the production implementation; a nil Recorder
// disables recording.
type Recorder interface {
	RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration)
}

// Dispatcher routes model-emitted tool calls to their handlers. Unknown
// tool names and handler panics become warning text rather than errors
// so a turn always produces a reply.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *slog.Logger
	recorder Recorder
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRecorder attaches invocation telemetry.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithDispatcherLogger overrides the default slog logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher over the tool set.
func NewDispatcher(tools *Tools, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: tools.Handlers(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Names returns the registered tool names.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch runs the named tool and returns its textual result. The
// boolean reports whether the name was recognized; the text is always a
// usable reply either way.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (result string, known bool) {
	handler, ok := d.handlers[name]
	if !ok {
		d.logger.WarnContext(ctx, "unknown tool requested", logging.Tool(name))
		d.record(ctx, name, logging.StatusError, 0)
		return fmt.Sprintf("⚠️ Unknown tool: '%s'", name), false
	}

	ctx, span := instrumentation.StartToolSpan(ctx, name)
	defer span.End()

	start := time.Now()
	text, err := d.run(ctx, name, handler, args)
	elapsed := time.Since(start)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
		instrumentation.SetSpanError(span, err)
		d.logger.ErrorContext(ctx, "tool execution failed",
			logging.Tool(name),
			logging.Err(err),
			slog.Duration(logging.KeyDuration, elapsed))
	} else {
		instrumentation.SetSpanSuccess(span)
		d.logger.InfoContext(ctx, "tool executed",
			logging.Tool(name),
			slog.Duration(logging.KeyDuration, elapsed))
	}
	d.record(ctx, name, status, elapsed)

	return text, true
}

// run isolates handler panics so a misbehaving tool cannot take down the
// turn.
func (d *Dispatcher) run(ctx context.Context, name string, handler Handler, args map[string]any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
			text = fmt.Sprintf("Error executing tool '%s': %v", name, r)
		}
	}()
	return handler(ctx, args)
}

func (d *Dispatcher) record(ctx context.Context, tool, status string, duration time.Duration) {
	if d.recorder == nil {
		return
	}
	d.recorder.RecordToolInvocation(ctx, tool, status, duration)
}
