package domain

import "context"

// SlideRepository persists finished slides for later retrieval and download.
type SlideRepository interface {
	Create(ctx context.Context, slide *Slide, task *SlideTask, latencyMS int) error
	GetByID(ctx context.Context, id string) (*Slide, error)
}

// JobRepository persists async generation jobs for the worker to claim.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	ClaimNext(ctx context.Context) (*Job, error)
	Finish(ctx context.Context, jobID string, status JobStatus, errMsg *string, slideJSON []byte) error
}
