package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"slidegen/internal/domain"
)

func TestAnthropicClientComplete(t *testing.T) {
	t.Parallel()
	var captured anthropicRequest
	var capturedKey, capturedVersion string
	client, err := NewAnthropicClient(AnthropicOptions{
		APIKey: "ak-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			capturedKey = r.Header.Get("x-api-key")
			capturedVersion = r.Header.Get("anthropic-version")
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &captured); err != nil {
				t.Errorf("decode captured request: %v", err)
			}
			payload := `{"content":[{"type":"text","text":"{\"key_points\":"},{"type":"text","text":"[\"a\"]}"}]}`
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(payload)),
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewAnthropicClient returned error: %v", err)
	}

	got, err := client.Complete(context.Background(), Request{
		System: "Respond only with raw JSON.",
		Prompt: "List key points.",
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != `{"key_points":["a"]}` {
		t.Fatalf("Complete = %q, want joined text blocks", got)
	}
	if capturedKey != "ak-test" {
		t.Fatalf("x-api-key = %q, want %q", capturedKey, "ak-test")
	}
	if capturedVersion != anthropicDefaultVersion {
		t.Fatalf("anthropic-version = %q, want %q", capturedVersion, anthropicDefaultVersion)
	}
	if captured.System != "Respond only with raw JSON." {
		t.Fatalf("System = %q, want system instruction at top level", captured.System)
	}
	if captured.MaxTokens != anthropicDefaultMaxTokens {
		t.Fatalf("MaxTokens = %d, want default %d", captured.MaxTokens, anthropicDefaultMaxTokens)
	}
}

func TestAnthropicClientQuotaStatus(t *testing.T) {
	t.Parallel()
	client, err := NewAnthropicClient(AnthropicOptions{
		APIKey: "ak-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       io.NopCloser(strings.NewReader("{}")),
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewAnthropicClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("Complete err = %v, want ErrQuotaExceeded", err)
	}
}
