package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const anthropicVersion = "2023-06-01"

// AnthropicAdapter implements ProviderAdapter for the Anthropic Messages API.
// Anthropic has no native JSON-schema response mode, so a schema request is
// delivered as a system-prompt instruction instead.
type AnthropicAdapter struct {
	config ProviderConfig
	apiKey string
}

// NewAnthropicAdapter creates an Anthropic adapter with a resolved credential.
func NewAnthropicAdapter(cfg ProviderConfig, apiKey string) *AnthropicAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.anthropic.com"
	}
	return &AnthropicAdapter{config: cfg, apiKey: apiKey}
}

// Name returns the provider name.
func (a *AnthropicAdapter) Name() string { return ProviderAnthropic }

// Build constructs the Messages API HTTP request.
func (a *AnthropicAdapter) Build(ctx context.Context, req *Request) (*http.Request, error) {
	system := req.SystemPrompt
	if len(req.Schema) > 0 {
		schemaNote := fmt.Sprintf(
			"\n\nRespond with a single JSON object and nothing else. The object must match this JSON schema:\n%s",
			string(req.Schema))
		system += schemaNote
	}

	body := map[string]any{
		"model":      req.Model,
		"max_tokens": req.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": req.UserPrompt},
		},
		"temperature": req.Temperature,
	}
	if system != "" {
		body["system"] = system
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.Endpoint+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// Parse extracts the completion from an Anthropic response.
func (a *AnthropicAdapter) Parse(status int, header http.Header, body []byte) (*Response, error) {
	if status != http.StatusOK {
		return nil, classifyStatus(ProviderAnthropic, status, anthropicErrorMessage(body), header)
	}

	var parsed struct {
		Model   string `json:"model"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{
			Type:     ErrorTypeContent,
			Provider: ProviderAnthropic,
			Message:  fmt.Sprintf("decode response: %v", err),
		}
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, &Error{
			Type:     ErrorTypeContent,
			Provider: ProviderAnthropic,
			Message:  "empty completion",
		}
	}
	return &Response{
		Content:          text,
		Model:            parsed.Model,
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
	}, nil
}

func anthropicErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		return "provider error"
	}
	if parsed.Error.Type != "" {
		return parsed.Error.Type + ": " + parsed.Error.Message
	}
	return parsed.Error.Message
}
