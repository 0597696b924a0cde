package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"slidegen/internal/domain"
	"slidegen/internal/infra"
	"slidegen/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new queued job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.Status,
		job.TaskJSON,
		job.Locale,
		job.Country,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QGetJobByID, jobID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.Status,
		&job.TaskJSON,
		&job.SlideJSON,
		&job.ErrorMessage,
		&job.Locale,
		&job.Country,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ClaimNext atomically claims the oldest queued job, or returns
// domain.ErrNotFound when the queue is empty.
func (r *JobRepositoryPG) ClaimNext(ctx context.Context) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimNextJob)
	job := domain.Job{Status: domain.JobStatusRunning}
	if err := row.Scan(&job.ID, &job.TaskJSON, &job.Locale, &job.Country); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Finish records the terminal state of a claimed job.
func (r *JobRepositoryPG) Finish(ctx context.Context, jobID string, status domain.JobStatus, errMsg *string, slideJSON []byte) error {
	_, err := r.sql.Exec(ctx, sqlinline.QFinishJob, jobID, status, errMsg, nullableBytes(slideJSON))
	return err
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
