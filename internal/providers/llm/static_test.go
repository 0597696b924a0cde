package llm

import (
	"context"
	"encoding/json"
	"testing"
)

func TestStaticClientReturnsValidJSON(t *testing.T) {
	t.Parallel()
	client := NewStaticClient()
	out, err := client.Complete(context.Background(), Request{Prompt: "Data: q1 revenue: $10M"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	for _, key := range []string{"title", "key_points", "visual_type", "recommendations"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("output missing %q: %s", key, out)
		}
	}
	if decoded["title"] != "Q1 Revenue Overview" {
		t.Fatalf("title = %q, want subject lifted from data section", decoded["title"])
	}
}

func TestStaticClientIsDeterministic(t *testing.T) {
	t.Parallel()
	client := NewStaticClient()
	req := Request{Prompt: "Data: monthly churn, by cohort"}
	first, err := client.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	second, err := client.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if first != second {
		t.Fatalf("static output varies:\n%s\n%s", first, second)
	}
}
