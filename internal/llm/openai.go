package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAIAdapter implements ProviderAdapter for the OpenAI chat/completions
// API, including native JSON-schema structured output.
type OpenAIAdapter struct {
	config ProviderConfig
	apiKey string
}

// NewOpenAIAdapter creates an OpenAI adapter with a resolved credential.
func NewOpenAIAdapter(cfg ProviderConfig, apiKey string) *OpenAIAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	return &OpenAIAdapter{config: cfg, apiKey: apiKey}
}

// Name returns the provider name.
func (a *OpenAIAdapter) Name() string { return ProviderOpenAI }

// Build constructs the chat/completions HTTP request.
func (a *OpenAIAdapter) Build(ctx context.Context, req *Request) (*http.Request, error) {
	messages := []map[string]any{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]any{"role": "user", "content": req.UserPrompt})

	body := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}
	if len(req.Schema) > 0 {
		body["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.SchemaName,
				"strict": true,
				"schema": json.RawMessage(req.Schema),
			},
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.Endpoint+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// Parse extracts the completion from an OpenAI response.
func (a *OpenAIAdapter) Parse(status int, header http.Header, body []byte) (*Response, error) {
	if status != http.StatusOK {
		return nil, classifyStatus(ProviderOpenAI, status, openAIErrorMessage(body), header)
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{
			Type:     ErrorTypeContent,
			Provider: ProviderOpenAI,
			Message:  fmt.Sprintf("decode response: %v", err),
		}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, &Error{
			Type:     ErrorTypeContent,
			Provider: ProviderOpenAI,
			Message:  "empty completion",
		}
	}
	return &Response{
		Content:          parsed.Choices[0].Message.Content,
		Model:            parsed.Model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func openAIErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
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
