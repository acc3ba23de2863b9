package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c, err := New(contract.LLMConfig{
		BaseURL: url,
		APIKey:  "secret",
		Model:   "test-model",
		Timeout: 2 * time.Second,
		Retries: retries,
	}, WithBackoff(time.Millisecond), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func TestNew_Disabled(t *testing.T) {
	_, err := New(contract.LLMConfig{})
	assert.ErrorIs(t, err, contract.ErrNoModel)

	_, err = New(contract.LLMConfig{BaseURL: "http://localhost"})
	assert.ErrorIs(t, err, contract.ErrNoModel)
}

func TestComplete_ToolCallRoundTrip(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"run_sql","arguments":"{\"query\":\"SELECT brand FROM brands_monthly\"}"}}]}}]}`))
	}))
	defer srv.Close()

	messages := []schema.Message{
		{Role: schema.SystemRole, Content: "You answer questions."},
		{Role: schema.UserRole, Content: "top brands?"},
		{Role: schema.AssistantRole, ToolCalls: []schema.ToolCall{{ID: "call_0", Name: "list_tables", Arguments: "{}"}}},
		{Role: schema.ToolRole, ToolCallID: "call_0", Name: "list_tables", Content: `["brands_monthly"]`},
	}
	tools := []schema.ToolSpec{{Name: "list_tables", Description: "List tables"}}

	completion, err := newTestClient(t, srv.URL, 0).Complete(context.Background(), messages, tools)
	require.NoError(t, err)

	assert.Empty(t, completion.Content)
	require.Len(t, completion.ToolCalls, 1)
	assert.Equal(t, schema.ToolCall{ID: "call_1", Name: "run_sql", Arguments: `{"query":"SELECT brand FROM brands_monthly"}`}, completion.ToolCalls[0])

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "function", got.Messages[2].ToolCalls[0].Type)
	assert.Equal(t, "list_tables", got.Messages[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_0", got.Messages[3].ToolCallID)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "object", got.Tools[0].Function.Parameters["type"])
}

func TestComplete_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer srv.Close()

	completion, err := newTestClient(t, srv.URL, 2).Complete(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", completion.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestComplete_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 2).Complete(context.Background(), nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestComplete_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).Complete(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete_MalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"invalid json": `{"choices":`,
		"no choices":   `{"choices":[]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, 0).Complete(context.Background(), nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestComplete_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5)
	c.backoff = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Complete(ctx, nil, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStatusErrorRetryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: 500}).Retryable())
	assert.True(t, (&StatusError{Code: 429}).Retryable())
	assert.False(t, (&StatusError{Code: 400}).Retryable())
	assert.False(t, (&StatusError{Code: 404}).Retryable())
}
