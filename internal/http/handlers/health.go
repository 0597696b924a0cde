package handlers

import (
	"net/http"
)

// Health reports liveness plus the queue's current load so operators can see
// backlog at a glance.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if a.Queue != nil {
		pending, active := a.Queue.Depth()
		body["queue"] = map[string]int{"pending": pending, "active": active}
	}
	a.json(w, http.StatusOK, body)
}
