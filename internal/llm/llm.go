// Package llm provides a resilient HTTP client for language-model providers.
// It adapts a normalized completion request to each provider's wire format,
// enforces a per-attempt timeout, retries transient failures a bounded number
// of times with exponential backoff and jitter, and classifies errors so
// callers can distinguish retryable provider trouble from permanent faults.
//
// Only request/response completion is supported, no streaming. The client is
// safe for concurrent use.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the narrow capability the interpretation stage depends on.
type Client interface {
	// Complete sends one completion request and returns the provider's reply.
	// The context bounds the whole call including retries.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Request is a provider-agnostic completion request.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	MaxTokens    int
	Temperature  float64

	// SchemaName and Schema request structured JSON output where the provider
	// supports it; other providers receive the schema as an instruction.
	SchemaName string
	Schema     json.RawMessage
}

// Response is a provider-agnostic completion reply.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ProviderAdapter translates between the normalized request/response pair and
// one provider's HTTP contract.
type ProviderAdapter interface {
	Name() string
	Build(ctx context.Context, req *Request) (*http.Request, error)
	Parse(status int, header http.Header, body []byte) (*Response, error)
}

// maxResponseBody caps how much of a provider reply is read.
const maxResponseBody = 1 << 20

type client struct {
	adapter ProviderAdapter
	http    *http.Client
	timeout time.Duration
	retry   RetryConfig
}

// NewClient builds a client for the configured provider. It fails fast when
// the provider is unknown or its API key cannot be resolved, so a missing
// credential is discovered at startup rather than on the first request.
func NewClient(cfg Config) (Client, error) {
	cfg.applyDefaults()

	adapter, err := newAdapter(cfg)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &client{
		adapter: adapter,
		http:    httpClient,
		timeout: time.Duration(cfg.Timeout),
		retry:   cfg.Retry,
	}, nil
}

// Complete implements Client with bounded retries around single attempts.
func (c *client) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.UserPrompt == "" {
		return nil, &Error{
			Type:     ErrorTypeValidation,
			Provider: c.adapter.Name(),
			Message:  "empty completion request",
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.waitBeforeRetry(ctx, attempt, lastErr); err != nil {
				return nil, err
			}
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var lerr *Error
		if errors.As(err, &lerr) && !lerr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, classifyTransport(c.adapter.Name(), ctx.Err())
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrMaxRetriesExceeded, c.retry.MaxAttempts, lastErr)
}

// attempt runs one provider call under the per-attempt timeout.
func (c *client) attempt(ctx context.Context, req *Request) (*Response, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.adapter.Build(attemptCtx, req)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeValidation,
			Provider: c.adapter.Name(),
			Message:  fmt.Sprintf("build request: %v", err),
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(c.adapter.Name(), err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, classifyTransport(c.adapter.Name(), err)
	}
	return c.adapter.Parse(httpResp.StatusCode, httpResp.Header, body)
}

func (c *client) waitBeforeRetry(ctx context.Context, attempt int, lastErr error) error {
	delay := c.retry.backoffDelay(attempt)
	var lerr *Error
	if errors.As(lastErr, &lerr) && lerr.RetryAfter > 0 {
		delay = lerr.RetryAfter
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return classifyTransport(c.adapter.Name(), ctx.Err())
	}
}
