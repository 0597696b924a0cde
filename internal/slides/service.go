// Package slides implements the slide generation pipeline: decomposition of
// one request into prioritized sub-tasks, execution against a text-generation
// backend through the task queue, and normalization of the heterogeneous
// responses into one slide object.
package slides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"slidegen/internal/domain"
	"slidegen/internal/providers/llm"
	"slidegen/internal/queue"
)

// Options wire a Service. Queue and Client are required.
type Options struct {
	Queue  *queue.Queue
	Client llm.Client
	Models map[domain.SubTaskType]string
	Logger zerolog.Logger
}

// Service is the orchestrator for one-request/one-slide generation cycles.
type Service struct {
	queue  *queue.Queue
	client llm.Client
	models map[domain.SubTaskType]string
	log    zerolog.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Queue == nil {
		return nil, errors.New("slides: queue is required")
	}
	if opts.Client == nil {
		return nil, errors.New("slides: client is required")
	}
	models := opts.Models
	if models == nil {
		models = map[domain.SubTaskType]string{}
	}
	return &Service{
		queue:  opts.Queue,
		client: opts.Client,
		models: models,
		log:    opts.Logger,
	}, nil
}

// Generate runs the whole cycle: validate, decompose, fan the sub-tasks out
// through the queue under composite ids, collect per-sub-task results, and
// assemble the slide.
//
// A sub-task that fails even after the queue's retries degrades to its
// deterministic fallback instead of failing the request; the slide is marked
// Degraded. Quota and configuration failures are the exception: they surface
// immediately so the caller can apply its own backoff.
func (s *Service) Generate(ctx context.Context, task domain.SlideTask) (*domain.Slide, error) {
	if strings.TrimSpace(task.RawData) == "" {
		return nil, fmt.Errorf("%w: rawData is required", domain.ErrInvalidInput)
	}
	if len(task.RawData) > domain.MaxRawDataBytes {
		return nil, fmt.Errorf("%w: rawData is %d bytes, limit is %d", domain.ErrPayloadTooLarge, len(task.RawData), domain.MaxRawDataBytes)
	}

	requestID := uuid.NewString()
	started := time.Now()
	subs := s.decompose(ctx, task)

	type subResult struct {
		sub     domain.SubTask
		content string
		err     error
	}
	results := make(chan subResult, len(subs))
	for _, sub := range subs {
		sub := sub
		go func() {
			id := fmt.Sprintf("%s-%s", requestID, sub.Type)
			content, err := queue.Do(ctx, s.queue, id, sub.Priority, func(ctx context.Context) (string, error) {
				return s.execute(ctx, sub)
			})
			results <- subResult{sub: sub, content: content, err: err}
		}()
	}

	parts := make(map[domain.SubTaskType]Part, len(subs))
	degraded := false
	for range subs {
		r := <-results
		switch {
		case r.err == nil:
			parts[r.sub.Type] = Normalize(r.sub.Type, r.content)
		case errors.Is(r.err, domain.ErrQuotaExceeded),
			errors.Is(r.err, domain.ErrNotConfigured),
			errors.Is(r.err, context.DeadlineExceeded),
			errors.Is(r.err, context.Canceled),
			errors.Is(r.err, domain.ErrQueueStopped):
			return nil, r.err
		default:
			s.log.Warn().
				Str("request", requestID).
				Str("sub_task", string(r.sub.Type)).
				Err(r.err).
				Msg("slides: sub-task failed, degrading to fallback")
			degraded = true
			parts[r.sub.Type] = Normalize(r.sub.Type, fallbackContent(r.sub.Type))
		}
	}

	slide := s.assemble(requestID, task, parts, degraded)
	s.log.Info().
		Str("request", requestID).
		Bool("degraded", degraded).
		Dur("elapsed", time.Since(started)).
		Msg("slides: generated")
	return slide, nil
}

func (s *Service) assemble(requestID string, task domain.SlideTask, parts map[domain.SubTaskType]Part, degraded bool) *domain.Slide {
	titlePart := parts[domain.SubTaskTitle]
	keyPart := parts[domain.SubTaskKeyPoints]
	visualPart := parts[domain.SubTaskVisualization]
	recPart := parts[domain.SubTaskRecommendations]

	title := titlePart.Title
	if title == defaultTitle && task.Title != "" {
		title = task.Title
	}
	subtitle := titlePart.Subtitle
	if subtitle == "" {
		subtitle = task.SoWhat
	}
	return &domain.Slide{
		ID:               requestID,
		Title:            title,
		Subtitle:         subtitle,
		VisualType:       visualPart.VisualType,
		VisualHighlights: visualPart.VisualHighlights,
		KeyPoints:        capList(keyPart.KeyPoints, domain.MaxKeyPoints),
		Recommendations:  capList(recPart.Recommendations, domain.MaxRecommendations),
		Source:           fallbackString(task.Source, "Internal analysis"),
		Audience:         fallbackString(task.Audience, "General"),
		Style:            fallbackString(task.Style, "professional"),
		Degraded:         degraded,
		CreatedAt:        time.Now().UTC(),
	}
}

func capList(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func fallbackString(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
