package slides

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"slidegen/internal/domain"
	"slidegen/internal/providers/llm"
)

type fakeClient struct {
	complete func(ctx context.Context, req llm.Request) (string, error)
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f.complete(ctx, req)
}

func (f *fakeClient) Name() string { return "fake" }

func TestCleanModelJSON(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "plain_object",
			raw:  `{"title":"Growth"}`,
			want: `{"title":"Growth"}`,
		},
		{
			name: "fenced",
			raw:  "```json\n{\"title\":\"Growth\"}\n```",
			want: `{"title":"Growth"}`,
		},
		{
			name: "prose_around_object",
			raw:  `Here is the slide you asked for: {"title":"Growth"} hope it helps!`,
			want: `{"title":"Growth"}`,
		},
		{
			name: "repairable_trailing_comma",
			raw:  `{"key_points":["a","b",],}`,
			want: `{"key_points":["a","b"]}`,
		},
		{
			name:    "not_json_at_all",
			raw:     "not json",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := cleanModelJSON(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("cleanModelJSON(%q) = %q, want error", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("cleanModelJSON(%q) returned error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("cleanModelJSON(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestExecuteSubstitutesFallbackOnMalformedOutput(t *testing.T) {
	t.Parallel()
	s := &Service{
		client: &fakeClient{complete: func(ctx context.Context, req llm.Request) (string, error) {
			return "not json", nil
		}},
		models: map[domain.SubTaskType]string{},
		log:    zerolog.Nop(),
	}

	content, err := s.execute(context.Background(), domain.SubTask{Type: domain.SubTaskTitle, Prompt: "x"})
	if err != nil {
		t.Fatalf("execute returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		t.Fatalf("fallback content is not valid JSON: %v", err)
	}
	if decoded["title"] != "Analysis Results" {
		t.Fatalf("fallback title = %v, want %q", decoded["title"], "Analysis Results")
	}
}

func TestExecutePropagatesTransportErrors(t *testing.T) {
	t.Parallel()
	s := &Service{
		client: &fakeClient{complete: func(ctx context.Context, req llm.Request) (string, error) {
			return "", domain.ErrProviderFailure
		}},
		models: map[domain.SubTaskType]string{},
		log:    zerolog.Nop(),
	}

	if _, err := s.execute(context.Background(), domain.SubTask{Type: domain.SubTaskKeyPoints, Prompt: "x"}); err == nil {
		t.Fatal("execute absorbed a transport error, want propagation")
	}
}

func TestFallbackContentIsAlwaysValidJSON(t *testing.T) {
	t.Parallel()
	types := []domain.SubTaskType{
		domain.SubTaskTitle,
		domain.SubTaskKeyPoints,
		domain.SubTaskVisualization,
		domain.SubTaskRecommendations,
		domain.SubTaskType("unknown"),
	}
	for _, typ := range types {
		if !json.Valid([]byte(fallbackContent(typ))) {
			t.Fatalf("fallbackContent(%s) is not valid JSON", typ)
		}
	}
}
