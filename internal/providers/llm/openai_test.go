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

func TestOpenAIClientComplete(t *testing.T) {
	t.Parallel()
	var captured openAIChatRequest
	var capturedAuth string
	client, err := NewOpenAIClient(OpenAIOptions{
		APIKey: "sk-test",
		Model:  "gpt-4o-mini",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			capturedAuth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &captured); err != nil {
				t.Errorf("decode captured request: %v", err)
			}
			payload := `{"choices":[{"message":{"content":"{\"title\":\"Revenue Growth\"}"}}]}`
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(payload)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}

	got, err := client.Complete(context.Background(), Request{
		System:    "Respond only with raw JSON.",
		Prompt:    "Generate a slide title.",
		ForceJSON: true,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != `{"title":"Revenue Growth"}` {
		t.Fatalf("Complete = %q, want title JSON", got)
	}
	if capturedAuth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q, want bearer token", capturedAuth)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("ResponseFormat = %#v, want json_object", captured.ResponseFormat)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("Messages = %#v, want system+user pair", captured.Messages)
	}
}

func TestOpenAIClientStatusMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "quota", status: http.StatusTooManyRequests, want: domain.ErrQuotaExceeded},
		{name: "auth", status: http.StatusUnauthorized, want: domain.ErrNotConfigured},
		{name: "upstream", status: http.StatusServiceUnavailable, want: domain.ErrProviderFailure},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client, err := NewOpenAIClient(OpenAIOptions{
				APIKey: "sk-test",
				HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: tc.status,
						Body:       io.NopCloser(strings.NewReader("{}")),
					}, nil
				})},
			})
			if err != nil {
				t.Fatalf("NewOpenAIClient returned error: %v", err)
			}
			if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, tc.want) {
				t.Fatalf("Complete err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewOpenAIClient(OpenAIOptions{}); err == nil {
		t.Fatal("NewOpenAIClient accepted empty api key")
	}
}
