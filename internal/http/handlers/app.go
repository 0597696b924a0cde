package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"slidegen/internal/domain"
	"slidegen/internal/infra"
	"slidegen/internal/queue"
	"slidegen/internal/slides"
	"slidegen/internal/storage"
)

// App is the handler container; main wires the dependencies in.
type App struct {
	Logger          infra.Logger
	SQL             infra.SQLExecutor
	Slides          *slides.Service
	SlideRepo       domain.SlideRepository
	JobRepo         domain.JobRepository
	Store           *storage.FileStore
	Queue           *queue.Queue
	GenerateTimeout time.Duration
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errorEnvelope is the user-facing failure shape: a degenerate slide so
// clients can render something without special-casing.
type errorEnvelope struct {
	Error     bool     `json:"error"`
	Message   string   `json:"message"`
	ErrorType string   `json:"errorType"`
	Title     string   `json:"title"`
	Subtitle  string   `json:"subtitle"`
	KeyPoints []string `json:"keyPoints"`
	Source    string   `json:"source"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, code int, errorType string) {
	msg := localizedMessage(r, errorType)
	a.json(w, code, errorEnvelope{
		Error:     true,
		Message:   msg,
		ErrorType: errorType,
		Title:     localizedMessage(r, "error_title"),
		Subtitle:  msg,
		KeyPoints: []string{},
		Source:    "slidegen",
	})
}

func (a *App) generateTimeout() time.Duration {
	if a.GenerateTimeout > 0 {
		return a.GenerateTimeout
	}
	return 90 * time.Second
}
