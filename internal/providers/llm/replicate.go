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

	"slidegen/internal/domain"
)

type ReplicateOptions struct {
	APIToken   string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	PollEvery  time.Duration
}

// ReplicateClient runs DeepSeek-class models through the Replicate
// predictions API. Creation uses the blocking "Prefer: wait" mode; if the
// prediction is still processing when the wait window closes, it falls back
// to polling the prediction URL.
type ReplicateClient struct {
	apiToken  string
	model     string
	baseURL   string
	client    *http.Client
	pollEvery time.Duration
}

const (
	replicateProviderName   = "replicate"
	replicateDefaultTimeout = 90 * time.Second
	replicateDefaultModel   = "deepseek-ai/deepseek-v3"
	replicateDefaultBaseURL = "https://api.replicate.com"
	replicateDefaultPoll    = 2 * time.Second
)

type replicatePredictionRequest struct {
	Input replicateInput `json:"input"`
}

type replicateInput struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func NewReplicateClient(opts ReplicateOptions) (*ReplicateClient, error) {
	if strings.TrimSpace(opts.APIToken) == "" {
		return nil, errors.New("replicate api token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = replicateDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = replicateDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: replicateDefaultTimeout}
	}
	pollEvery := opts.PollEvery
	if pollEvery <= 0 {
		pollEvery = replicateDefaultPoll
	}
	return &ReplicateClient{
		apiToken:  strings.TrimSpace(opts.APIToken),
		model:     model,
		baseURL:   baseURL,
		client:    client,
		pollEvery: pollEvery,
	}, nil
}

func (c *ReplicateClient) Name() string { return replicateProviderName }

func (c *ReplicateClient) Complete(ctx context.Context, req Request) (string, error) {
	// The predictions API takes a single prompt; fold the system instruction
	// in front of the user content.
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}
	payload := replicatePredictionRequest{
		Input: replicateInput{
			Prompt:      prompt,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("replicate: encode request: %w", err)
	}
	model := coalesce(req.Model, c.model)
	endpoint := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("replicate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Prefer", "wait")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("replicate: http request: %w", err)
	}
	prediction, err := decodePrediction(resp)
	if err != nil {
		return "", err
	}
	for !terminalPredictionStatus(prediction.Status) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollEvery):
		}
		prediction, err = c.fetchPrediction(ctx, prediction.URLs.Get)
		if err != nil {
			return "", err
		}
	}
	if prediction.Status != "succeeded" {
		msg := prediction.Error
		if msg == "" {
			msg = prediction.Status
		}
		return "", fmt.Errorf("%w: replicate prediction %s: %s", errClassForPrediction(msg), prediction.ID, msg)
	}
	text := joinPredictionOutput(prediction.Output)
	if text == "" {
		return "", errors.New("replicate: empty prediction output")
	}
	return text, nil
}

func (c *ReplicateClient) fetchPrediction(ctx context.Context, url string) (*replicatePrediction, error) {
	if url == "" {
		return nil, errors.New("replicate: prediction has no poll url")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate: poll request: %w", err)
	}
	return decodePrediction(resp)
}

func decodePrediction(resp *http.Response) (*replicatePrediction, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, statusError(replicateProviderName, resp.StatusCode)
	}
	var prediction replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("replicate: decode prediction: %w", err)
	}
	return &prediction, nil
}

func terminalPredictionStatus(status string) bool {
	switch status {
	case "succeeded", "failed", "canceled":
		return true
	default:
		return false
	}
}

// errClassForPrediction picks the domain class for a failed prediction based
// on the error text, so throttling reported inside an otherwise-200 envelope
// is still classified as quota.
func errClassForPrediction(msg string) error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota") {
		return domain.ErrQuotaExceeded
	}
	return domain.ErrProviderFailure
}

// joinPredictionOutput flattens the output field, which arrives either as a
// plain string or as an array of string chunks.
func joinPredictionOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var chunks []string
	if err := json.Unmarshal(raw, &chunks); err == nil {
		return strings.TrimSpace(strings.Join(chunks, ""))
	}
	return ""
}

var _ Client = (*ReplicateClient)(nil)
