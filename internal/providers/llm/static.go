package llm

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StaticClient is a deterministic offline backend used when no hosted
// provider is configured and static mode is explicitly allowed. It answers
// every prompt with one JSON object carrying a value for every slide field,
// so the normalizer can pick whichever keys the sub-task asked for.
type StaticClient struct {
	caser cases.Caser
}

const staticProviderName = "static"

func NewStaticClient() *StaticClient {
	return &StaticClient{caser: cases.Title(language.English)}
}

func (c *StaticClient) Name() string { return staticProviderName }

func (c *StaticClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	subject := c.subjectFromPrompt(req.Prompt)
	payload := map[string]any{
		"title":    subject + " Overview",
		"subtitle": "Automatically generated summary",
		"key_points": []string{
			"Figures compiled from the submitted data",
			"Review against the stated insight before presenting",
		},
		"visual_type": "bar",
		"highlights":  []string{"Largest reported value"},
		"recommendations": []string{
			"Validate the highlighted figures with the data owner",
		},
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// subjectFromPrompt lifts a short topic from the prompt's data section so the
// static output is at least recognizably about the request.
func (c *StaticClient) subjectFromPrompt(prompt string) string {
	const marker = "Data:"
	idx := strings.Index(prompt, marker)
	if idx < 0 {
		return "Analysis"
	}
	rest := strings.TrimSpace(prompt[idx+len(marker):])
	if rest == "" {
		return "Analysis"
	}
	if cut := strings.IndexAny(rest, ":,;.\n"); cut > 0 {
		rest = rest[:cut]
	}
	words := strings.Fields(rest)
	if len(words) > 4 {
		words = words[:4]
	}
	if len(words) == 0 {
		return "Analysis"
	}
	return c.caser.String(strings.ToLower(strings.Join(words, " ")))
}

var _ Client = (*StaticClient)(nil)
