package domain

import "time"

// JobStatus enumerates the lifecycle states of an async generation job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one deferred slide generation request persisted for the worker.
// TaskJSON holds the submitted SlideTask; SlideJSON the finished Slide.
type Job struct {
	ID           string
	Status       JobStatus
	TaskJSON     []byte
	SlideJSON    []byte
	ErrorMessage string
	Locale       string
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
