package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slidegen/internal/domain"
	"slidegen/internal/middleware"
)

type enqueueResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type jobResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Slide     json.RawMessage `json:"slide,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// EnqueueRequest accepts a generation task and defers it to the worker.
// Input is validated up front so callers learn about bad payloads now, not
// from a failed job later.
func (a *App) EnqueueRequest(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if strings.TrimSpace(req.RawData) == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if len(req.RawData) > domain.MaxRawDataBytes {
		a.error(w, r, http.StatusRequestEntityTooLarge, "payload_too_large")
		return
	}

	taskJSON, err := json.Marshal(req.task())
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	job := &domain.Job{
		ID:       uuid.NewString(),
		Status:   domain.JobStatusQueued,
		TaskJSON: taskJSON,
		Locale:   middleware.LocaleFromContext(r.Context()),
		Country:  middleware.CountryFromContext(r.Context()),
	}
	if err := a.JobRepo.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: enqueue job failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.recordUsage(r, job.ID, "SLIDE_ENQUEUE", true, 0)
	a.json(w, http.StatusAccepted, enqueueResponse{ID: job.ID, Status: string(job.Status)})
}

// GetRequest reports the state of an async job, including the finished slide
// once the worker has produced one.
func (a *App) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, r, http.StatusNotFound, "not_found")
		return
	}
	job, err := a.JobRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Str("job", id).Msg("handlers: load job failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	resp := jobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		Error:     job.ErrorMessage,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if job.Status == domain.JobStatusSucceeded && len(job.SlideJSON) > 0 {
		resp.Slide = json.RawMessage(job.SlideJSON)
	}
	a.json(w, http.StatusOK, resp)
}
