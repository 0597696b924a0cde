package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slidegen/internal/domain"
	"slidegen/internal/middleware"
	"slidegen/internal/sqlinline"
	zippkg "slidegen/pkg/zip"
)

type generateRequest struct {
	Title       string `json:"title"`
	RawData     string `json:"rawData"`
	SoWhat      string `json:"soWhat"`
	Source      string `json:"source"`
	Audience    string `json:"audience"`
	Style       string `json:"style"`
	FocusArea   string `json:"focusArea"`
	DataContext string `json:"dataContext"`
}

func (gr generateRequest) task() domain.SlideTask {
	return domain.SlideTask{
		Title:       gr.Title,
		RawData:     gr.RawData,
		SoWhat:      gr.SoWhat,
		Source:      gr.Source,
		Audience:    gr.Audience,
		Style:       gr.Style,
		FocusArea:   gr.FocusArea,
		DataContext: gr.DataContext,
	}
}

// GenerateSlide is the synchronous endpoint: decompose, fan out, normalize,
// respond. The whole cycle races the configured generation timeout.
func (a *App) GenerateSlide(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.generateTimeout())
	defer cancel()

	task := req.task()
	started := time.Now()
	slide, err := a.Slides.Generate(ctx, task)
	latency := int(time.Since(started).Milliseconds())
	if err != nil {
		a.recordUsage(r, "", "SLIDE_GENERATE", false, latency)
		a.generateError(w, r, err)
		return
	}

	a.persistSlide(r, slide, &task, latency)
	a.recordUsage(r, slide.ID, "SLIDE_GENERATE", true, latency)
	a.json(w, http.StatusOK, slide)
}

// DownloadSlide serves a stored slide as a zip archive of its JSON document.
func (a *App) DownloadSlide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, r, http.StatusNotFound, "not_found")
		return
	}
	slide, err := a.SlideRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Str("slide", id).Msg("handlers: load slide failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	data, err := json.MarshalIndent(slide, "", "  ")
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	archive, err := zippkg.Archive([]zippkg.Entry{{Filename: slide.ID + ".json", Data: data}})
	if err != nil {
		a.Logger.Error().Err(err).Str("slide", id).Msg("handlers: archive slide failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", slide.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) generateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, r, http.StatusBadRequest, "bad_request")
	case errors.Is(err, domain.ErrPayloadTooLarge):
		a.error(w, r, http.StatusRequestEntityTooLarge, "payload_too_large")
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.error(w, r, http.StatusTooManyRequests, "quota_exceeded")
	case errors.Is(err, domain.ErrNotConfigured):
		a.error(w, r, http.StatusServiceUnavailable, "not_configured")
	case errors.Is(err, context.DeadlineExceeded):
		a.error(w, r, http.StatusRequestTimeout, "timeout")
	default:
		a.Logger.Error().Err(err).Msg("handlers: slide generation failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
	}
}

// persistSlide stores the result in the database and the on-disk archive.
// Both are best effort; a persistence hiccup never fails a served slide.
func (a *App) persistSlide(r *http.Request, slide *domain.Slide, task *domain.SlideTask, latencyMS int) {
	ctx := r.Context()
	if a.SlideRepo != nil {
		if err := a.SlideRepo.Create(ctx, slide, task, latencyMS); err != nil {
			a.Logger.Warn().Err(err).Str("slide", slide.ID).Msg("handlers: persist slide failed")
		}
	}
	if a.Store != nil {
		if data, err := json.Marshal(slide); err == nil {
			if _, err := a.Store.Write(ctx, "slides/"+slide.ID+".json", data); err != nil {
				a.Logger.Warn().Err(err).Str("slide", slide.ID).Msg("handlers: archive slide failed")
			}
		}
	}
}

func (a *App) recordUsage(r *http.Request, requestID, eventType string, success bool, latencyMS int) {
	if a.SQL == nil {
		return
	}
	var reqID any
	if requestID != "" {
		reqID = requestID
	}
	country := middleware.CountryFromContext(r.Context())
	props, _ := json.Marshal(map[string]any{"locale": middleware.LocaleFromContext(r.Context())})
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertUsageEvent, reqID, eventType, success, latencyMS, country, props); err != nil {
		a.Logger.Warn().Err(err).Msg("handlers: record usage failed")
	}
}
