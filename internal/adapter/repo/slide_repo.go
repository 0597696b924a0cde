package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"slidegen/internal/domain"
	"slidegen/internal/infra"
	"slidegen/internal/sqlinline"
)

// SlideRepositoryPG implements domain.SlideRepository on PostgreSQL.
type SlideRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSlideRepository(sql infra.SQLExecutor) *SlideRepositoryPG {
	return &SlideRepositoryPG{sql: sql}
}

// Create stores the finished slide alongside the task that produced it.
func (r *SlideRepositoryPG) Create(ctx context.Context, slide *domain.Slide, task *domain.SlideTask, latencyMS int) error {
	slideJSON, err := json.Marshal(slide)
	if err != nil {
		return fmt.Errorf("slide repo: marshal slide: %w", err)
	}
	taskJSON, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("slide repo: marshal task: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertSlide,
		slide.ID,
		slide.Title,
		slide.Subtitle,
		slide.VisualType,
		slideJSON,
		taskJSON,
		slide.Degraded,
		latencyMS,
	)
	return err
}

// GetByID loads a stored slide by its request id.
func (r *SlideRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Slide, error) {
	var slideJSON []byte
	row := r.sql.QueryRow(ctx, sqlinline.QGetSlideByID, id)
	if err := row.Scan(&slideJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var slide domain.Slide
	if err := json.Unmarshal(slideJSON, &slide); err != nil {
		return nil, fmt.Errorf("slide repo: unmarshal slide %s: %w", id, err)
	}
	return &slide, nil
}

var _ domain.SlideRepository = (*SlideRepositoryPG)(nil)
