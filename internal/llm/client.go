package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tailortalk/tailortalk/internal/instrumentation"
	"github.com/tailortalk/tailortalk/internal/logging"
)

const (
	// DefaultEndpoint is the OpenRouter chat-completions endpoint.
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "deepseek/deepseek-chat-v3-0324:free"

	// DefaultTemperature keeps completions deterministic-leaning so the
	// tool-call JSON contract is respected.
	DefaultTemperature = 0.3

	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 30 * time.Second
)

// Degraded-service replies surfaced to users instead of errors.
const (
	msgNoCredentials = "No API keys available. Please check configuration."
	msgTransient     = "Sorry, there was a delay processing your request. Please try again."
)

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Recorder receives per-request completion telemetry. The
// instrumentation package provides the production implementation; a nil
// Recorder disables recording.
type Recorder interface {
	RecordLLMRequest(ctx context.Context, model, status string, duration time.Duration)
}

// Client calls the OpenRouter chat-completions API.
type Client struct {
	endpoint    string
	model       string
	temperature float64
	selector    KeySelector
	httpClient  *http.Client
	logger      *slog.Logger
	recorder    Recorder
}

// Option customizes Client construction.
type Option func(*Client)

// WithEndpoint overrides the completion endpoint. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRecorder attaches completion request telemetry.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates an OpenRouter client drawing keys from selector.
func NewClient(selector KeySelector, opts ...Option) *Client {
	c := &Client{
		endpoint:    DefaultEndpoint,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		selector:    selector,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the transcript and returns the first choice's content.
// A single attempt is made; there are no retries.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, c.model)
	defer span.End()

	start := time.Now()
	content, err := c.request(ctx, messages)
	elapsed := time.Since(start)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if c.recorder != nil {
		c.recorder.RecordLLMRequest(ctx, c.model, status, elapsed)
	}

	return content, err
}

// request performs the single HTTP completion attempt.
func (c *Client) request(ctx context.Context, messages []Message) (string, error) {
	key, err := c.selector.Next()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed with status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// CompleteOrDegrade is Complete with every failure mapped to a user-facing
// degraded-service message. The conversational layer relies on this never
// returning an error: a missing credential or provider outage turns into
// reply text, not a crashed turn.
func (c *Client) CompleteOrDegrade(ctx context.Context, messages []Message) string {
	content, err := c.Complete(ctx, messages)
	if err == nil {
		return content
	}

	c.logger.Warn("completion degraded", logging.Operation("llm_complete"), logging.Err(err))
	if errors.Is(err, ErrNoKeys) {
		return msgNoCredentials
	}
	return msgTransient
}
