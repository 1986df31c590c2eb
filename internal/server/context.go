package server

import (
	"context"
	"sync"

	"github.com/tailortalk/tailortalk/internal/agent"
	"github.com/tailortalk/tailortalk/internal/instrumentation"
	"github.com/tailortalk/tailortalk/internal/session"
)

// EventLister is the slice of the tool set the diagnostic endpoints
// need: a bounded event listing against the shared calendar.
type EventLister interface {
	ListEvents(ctx context.Context, args map[string]any) (string, error)
}

// ServerContext holds the shared dependencies of the chat API and the
// MCP transport: the session registry, the turn-processing agent and the
// metrics recorder. It owns a cancellable context used to signal
// shutdown to in-flight work.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	agent    *agent.Agent
	sessions *session.Registry
	metrics  *instrumentation.Metrics
	events   EventLister

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. The metrics recorder
// may be nil when instrumentation is disabled.
func NewServerContext(ctx context.Context, a *agent.Agent, sessions *session.Registry, metrics *instrumentation.Metrics) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		agent:    a,
		sessions: sessions,
		metrics:  metrics,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Agent returns the turn-processing agent.
func (sc *ServerContext) Agent() *agent.Agent {
	return sc.agent
}

// Sessions returns the session registry.
func (sc *ServerContext) Sessions() *session.Registry {
	return sc.sessions
}

// SetEventLister attaches the target of the calendar connectivity
// check. A nil lister leaves the calendar diagnostic endpoint reporting
// an error.
func (sc *ServerContext) SetEventLister(l EventLister) {
	sc.events = l
}

// Events returns the configured event lister, or nil.
func (sc *ServerContext) Events() EventLister {
	return sc.events
}

// Metrics returns the metrics recorder. Never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
