package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"slidegen/internal/domain"
)

type fakeJobRepo struct {
	jobs map[string]*domain.Job
}

func (f *fakeJobRepo) Create(_ context.Context, job *domain.Job) error {
	if f.jobs == nil {
		f.jobs = map[string]*domain.Job{}
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*domain.Job, error) {
	if j, ok := f.jobs[id]; ok {
		return j, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeJobRepo) ClaimNext(context.Context) (*domain.Job, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeJobRepo) Finish(_ context.Context, jobID string, status domain.JobStatus, errMsg *string, slideJSON []byte) error {
	j, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = status
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	if slideJSON != nil {
		j.SlideJSON = slideJSON
	}
	return nil
}

func TestEnqueueRequestAcceptsTask(t *testing.T) {
	repo := &fakeJobRepo{}
	app := &App{Logger: zerolog.Nop(), JobRepo: repo}

	body := `{"title":"Churn","rawData":"month,churn\njan,4.1"}`
	req := httptest.NewRequest("POST", "/v1/requests", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.EnqueueRequest(rr, req)

	if rr.Code != 202 {
		t.Fatalf("unexpected status code: got %d, want 202, body %s", rr.Code, rr.Body.String())
	}
	var resp enqueueResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "queued" {
		t.Fatalf("expected queued status, got %q", resp.Status)
	}
	if _, err := uuid.Parse(resp.ID); err != nil {
		t.Fatalf("expected a uuid job id, got %q", resp.ID)
	}
	job, ok := repo.jobs[resp.ID]
	if !ok {
		t.Fatal("job was not persisted")
	}
	var task domain.SlideTask
	if err := json.Unmarshal(job.TaskJSON, &task); err != nil {
		t.Fatalf("decode task json: %v", err)
	}
	if task.Title != "Churn" {
		t.Fatalf("unexpected task title %q", task.Title)
	}
}

func TestEnqueueRequestValidatesUpFront(t *testing.T) {
	repo := &fakeJobRepo{}
	app := &App{Logger: zerolog.Nop(), JobRepo: repo}

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing rawData", `{"title":"Empty"}`, 400},
		{"oversized rawData", `{"rawData":"` + strings.Repeat("x", domain.MaxRawDataBytes+1) + `"}`, 413},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/requests", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			app.EnqueueRequest(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("unexpected status code: got %d, want %d", rr.Code, tc.want)
			}
			if len(repo.jobs) != 0 {
				t.Fatal("invalid request must not create a job")
			}
		})
	}
}

func TestGetRequestReturnsFinishedSlide(t *testing.T) {
	id := uuid.NewString()
	repo := &fakeJobRepo{jobs: map[string]*domain.Job{
		id: {
			ID:        id,
			Status:    domain.JobStatusSucceeded,
			SlideJSON: []byte(`{"id":"` + id + `","title":"Churn"}`),
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
	}}
	app := &App{Logger: zerolog.Nop(), JobRepo: repo}

	req := httptest.NewRequest("GET", "/v1/requests/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	app.GetRequest(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	var resp jobResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "succeeded" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
	if len(resp.Slide) == 0 {
		t.Fatal("expected slide payload on succeeded job")
	}
}

func TestGetRequestRejectsNonUUID(t *testing.T) {
	app := &App{Logger: zerolog.Nop(), JobRepo: &fakeJobRepo{}}

	req := httptest.NewRequest("GET", "/v1/requests/not-a-uuid", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	app.GetRequest(rr, req)

	if rr.Code != 404 {
		t.Fatalf("unexpected status code: got %d, want 404", rr.Code)
	}
}
