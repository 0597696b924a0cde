package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type AnthropicOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

// AnthropicClient talks to the messages endpoint directly over HTTP.
type AnthropicClient struct {
	apiKey  string
	model   string
	baseURL string
	version string
	client  *http.Client
}

const (
	anthropicProviderName   = "anthropic"
	anthropicDefaultTimeout = 30 * time.Second
	anthropicDefaultModel   = "claude-3-5-haiku-latest"
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultVersion = "2023-06-01"

	anthropicDefaultMaxTokens = 1024
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewAnthropicClient(opts AnthropicOptions) (*AnthropicClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = anthropicDefaultModel
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = anthropicDefaultVersion
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: anthropicDefaultTimeout}
	}
	return &AnthropicClient{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		version: version,
		client:  client,
	}, nil
}

func (c *AnthropicClient) Name() string { return anthropicProviderName }

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	// The messages API has no JSON response format switch; the system
	// instruction carries the raw-JSON requirement instead.
	payload := anthropicRequest{
		Model:       coalesce(req.Model, c.model),
		MaxTokens:   maxTokens,
		System:      req.System,
		Temperature: req.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("anthropic: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/messages", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", statusError(anthropicProviderName, resp.StatusCode)
	}
	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	result := strings.TrimSpace(text.String())
	if result == "" {
		return "", errors.New("anthropic: empty completion")
	}
	return result, nil
}

var _ Client = (*AnthropicClient)(nil)
