package slides

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"slidegen/internal/domain"
	"slidegen/internal/providers/llm"
)

// dataSummary is the output of the quick upstream pass that pre-seeds the
// downstream prompts, keeping the expensive calls shorter and more
// deterministic.
type dataSummary struct {
	Overview        string   `json:"overview"`
	Metrics         []string `json:"metrics"`
	Trends          []string `json:"trends"`
	SuggestedVisual string   `json:"suggested_visual"`
}

// promptDataLimit truncates raw data embedded in downstream prompts; the
// summary carries the rest of the signal.
const promptDataLimit = 6000

// decompose splits one request into exactly four sub-tasks. The priorities
// encode relative importance for the queue only; all four may run
// concurrently up to the queue's ceiling.
func (s *Service) decompose(ctx context.Context, task domain.SlideTask) []domain.SubTask {
	sum := s.summarize(ctx, task)
	return []domain.SubTask{
		{Type: domain.SubTaskTitle, Priority: 4, Prompt: titlePrompt(task, sum)},
		{Type: domain.SubTaskKeyPoints, Priority: 3, Prompt: keyPointsPrompt(task, sum)},
		{Type: domain.SubTaskVisualization, Priority: 2, Prompt: visualizationPrompt(task, sum)},
		{Type: domain.SubTaskRecommendations, Priority: 1, Prompt: recommendationsPrompt(task, sum)},
	}
}

// summarize runs the upstream summary pass. A failed pass degrades to an
// empty summary rather than failing the request; the downstream prompts just
// lean harder on the raw data.
func (s *Service) summarize(ctx context.Context, task domain.SlideTask) dataSummary {
	raw, err := s.client.Complete(ctx, llm.Request{
		Model:       s.models[domain.SubTaskTitle],
		System:      executorSystem,
		Prompt:      summaryPrompt(task),
		Temperature: 0.2,
		MaxTokens:   500,
		ForceJSON:   true,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("slides: summary pass failed, continuing without it")
		return dataSummary{}
	}
	cleaned, err := cleanModelJSON(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("slides: summary pass returned malformed JSON, continuing without it")
		return dataSummary{}
	}
	var sum dataSummary
	_ = json.Unmarshal([]byte(cleaned), &sum)
	return sum
}

func summaryPrompt(task domain.SlideTask) string {
	sb := &strings.Builder{}
	sb.WriteString(`Summarize the business data below. Respond strictly with JSON: {"overview":string,"metrics":string[],"trends":string[],"suggested_visual":string}.`)
	writeContext(sb, task)
	fmt.Fprintf(sb, " Data: %s", truncate(task.RawData, promptDataLimit))
	return sb.String()
}

func titlePrompt(task domain.SlideTask, sum dataSummary) string {
	sb := &strings.Builder{}
	sb.WriteString(`Write a slide headline that states the "so what" of the data. Respond strictly with JSON: {"title":string,"subtitle":string}. Keep the title under 12 words.`)
	if task.SoWhat != "" {
		fmt.Fprintf(sb, " The author's stated insight: %q.", task.SoWhat)
	}
	writeSummary(sb, sum)
	writeContext(sb, task)
	fmt.Fprintf(sb, " Data: %s", truncate(task.RawData, promptDataLimit))
	return sb.String()
}

func keyPointsPrompt(task domain.SlideTask, sum dataSummary) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, `List at most %d key points supporting the slide. Respond strictly with JSON: {"key_points":string[]}. Each point one sentence, concrete numbers preferred.`, domain.MaxKeyPoints)
	writeSummary(sb, sum)
	writeContext(sb, task)
	fmt.Fprintf(sb, " Data: %s", truncate(task.RawData, promptDataLimit))
	return sb.String()
}

func visualizationPrompt(task domain.SlideTask, sum dataSummary) string {
	sb := &strings.Builder{}
	sb.WriteString(`Choose the best visualization for this data. Respond strictly with JSON: {"visual_type":string,"highlights":string[]}. visual_type is one of: bar, line, pie, scatter, table, waterfall.`)
	if sum.SuggestedVisual != "" {
		fmt.Fprintf(sb, " A first pass suggested %q; confirm or override.", sum.SuggestedVisual)
	}
	writeSummary(sb, sum)
	writeContext(sb, task)
	fmt.Fprintf(sb, " Data: %s", truncate(task.RawData, promptDataLimit))
	return sb.String()
}

func recommendationsPrompt(task domain.SlideTask, sum dataSummary) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, `Give at most %d actionable recommendations following from the data. Respond strictly with JSON: {"recommendations":string[]}.`, domain.MaxRecommendations)
	writeSummary(sb, sum)
	writeContext(sb, task)
	fmt.Fprintf(sb, " Data: %s", truncate(task.RawData, promptDataLimit))
	return sb.String()
}

func writeSummary(sb *strings.Builder, sum dataSummary) {
	if sum.Overview != "" {
		fmt.Fprintf(sb, " Data overview: %s.", sum.Overview)
	}
	if len(sum.Metrics) > 0 {
		fmt.Fprintf(sb, " Notable metrics: %s.", strings.Join(sum.Metrics, "; "))
	}
	if len(sum.Trends) > 0 {
		fmt.Fprintf(sb, " Trends: %s.", strings.Join(sum.Trends, "; "))
	}
}

func writeContext(sb *strings.Builder, task domain.SlideTask) {
	if task.Audience != "" {
		fmt.Fprintf(sb, " Audience: %s.", task.Audience)
	}
	if task.Style != "" {
		fmt.Fprintf(sb, " Style: %s.", task.Style)
	}
	if task.FocusArea != "" {
		fmt.Fprintf(sb, " Focus area: %s.", task.FocusArea)
	}
	if task.DataContext != "" {
		fmt.Fprintf(sb, " Context: %s.", task.DataContext)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
