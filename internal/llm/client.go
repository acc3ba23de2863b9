// Package llm is an HTTP client for OpenAI-compatible chat completion
// endpoints with tool calling.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/logger"
	"github.com/huangsam/catiq/internal/metrics"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
)

// defaultBackoff is the wait before the first retry; it doubles per attempt.
const defaultBackoff = 250 * time.Millisecond

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// StatusError is a non-2xx response from the model endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model endpoint returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Client implements contract.ModelClient.
type Client struct {
	cfg     contract.LLMConfig
	http    *http.Client
	logger  *zap.Logger
	backoff time.Duration
}

var _ contract.ModelClient = &Client{} // Compile-time check

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger for retries and failures.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = logger.OrNop(l) }
}

// WithBackoff sets the initial retry delay.
func WithBackoff(d time.Duration) Option {
	return func(cl *Client) { cl.backoff = d }
}

// New returns a client, or contract.ErrNoModel when the config is not enabled.
func New(cfg contract.LLMConfig, opts ...Option) (*Client, error) {
	if !cfg.Enabled() {
		return nil, contract.ErrNoModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = contract.DefaultLLMTimeout
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		logger:  zap.NewNop(),
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends one conversation round. Transport errors, 429 and 5xx
// responses are retried with exponential backoff up to the configured retries.
func (c *Client) Complete(ctx context.Context, messages []schema.Message, tools []schema.ToolSpec) (schema.Completion, error) {
	body, err := json.Marshal(newChatRequest(c.cfg.Model, messages, tools))
	if err != nil {
		return schema.Completion{}, fmt.Errorf("failed to encode model request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.logger.Warn("retrying model request", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(lastErr))
			metrics.ModelRequests.WithLabelValues("retry").Inc()
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				metrics.ModelRequests.WithLabelValues("canceled").Inc()
				return schema.Completion{}, ctx.Err()
			}
		}

		completion, err := c.do(ctx, body)
		if err == nil {
			metrics.ModelRequests.WithLabelValues("ok").Inc()
			return completion, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			metrics.ModelRequests.WithLabelValues("canceled").Inc()
			return schema.Completion{}, ctx.Err()
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			break
		}
	}

	metrics.ModelRequests.WithLabelValues("error").Inc()
	return schema.Completion{}, fmt.Errorf("model request failed: %w", lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (schema.Completion, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return schema.Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return schema.Completion{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return schema.Completion{}, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return schema.Completion{}, fmt.Errorf("failed to decode model response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return schema.Completion{}, errors.New("model response has no choices")
	}
	return decoded.Choices[0].Message.completion(), nil
}
