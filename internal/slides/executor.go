package slides

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"slidegen/internal/domain"
	"slidegen/internal/providers/llm"
)

const executorSystem = "You are a presentation analyst. Respond with raw JSON only. No markdown fences, no commentary, no fields outside the requested schema."

const executorMaxTokens = 800

// execute runs one sub-task against the configured backend and enforces the
// structured-JSON response contract: the returned content is always
// syntactically valid JSON. Malformed model output is absorbed into the
// type-specific fallback; only transport-level failures propagate, and those
// are the queue's concern.
func (s *Service) execute(ctx context.Context, sub domain.SubTask) (string, error) {
	raw, err := s.client.Complete(ctx, llm.Request{
		Model:       s.models[sub.Type],
		System:      executorSystem,
		Prompt:      sub.Prompt,
		Temperature: temperatureFor(sub.Type),
		MaxTokens:   executorMaxTokens,
		ForceJSON:   true,
	})
	if err != nil {
		return "", err
	}
	content, err := cleanModelJSON(raw)
	if err != nil {
		s.log.Warn().
			Str("sub_task", string(sub.Type)).
			Err(err).
			Msg("slides: malformed model output, using fallback content")
		return fallbackContent(sub.Type), nil
	}
	return content, nil
}

// temperatureFor keeps factual sub-tasks tight and lets recommendations roam
// a little.
func temperatureFor(t domain.SubTaskType) float64 {
	if t == domain.SubTaskRecommendations {
		return 0.7
	}
	return 0.3
}

// fallbackContent returns the deterministic per-type JSON substituted when a
// backend reply cannot be salvaged, so the pipeline never stalls on one
// malformed sub-result.
func fallbackContent(t domain.SubTaskType) string {
	switch t {
	case domain.SubTaskTitle:
		return `{"title":"Analysis Results"}`
	case domain.SubTaskKeyPoints:
		return `{"key_points":["Key findings are being compiled"]}`
	case domain.SubTaskVisualization:
		return `{"visual_type":"bar","highlights":[]}`
	case domain.SubTaskRecommendations:
		return `{"recommendations":["Review the underlying data"]}`
	default:
		return `{}`
	}
}

// cleanModelJSON extracts a JSON object from raw model text and returns it
// re-serialized. The chain is: strip code fences, slice between the outermost
// braces, parse; if parsing fails, run the repair pass before giving up.
func cleanModelJSON(raw string) (string, error) {
	text := extractJSONFragment(raw)
	if text == "" {
		return "", errors.New("empty payload")
	}
	if out, err := reserialize(text); err == nil {
		return out, nil
	}
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return "", err
	}
	return reserialize(repaired)
}

func reserialize(text string) (string, error) {
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return "", err
	}
	// A bare scalar is technically valid JSON but useless to the normalizer;
	// treat it as malformed so the fallback object applies.
	switch decoded.(type) {
	case map[string]any, []any:
	default:
		return "", errors.New("payload is not a JSON document")
	}
	out, err := json.Marshal(decoded)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// extractJSONFragment slices the best-effort JSON region out of model text
// that may carry fences or prose around the payload.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
