package handlers

import (
	"net/http"

	"slidegen/internal/sqlinline"
)

type eventStats struct {
	EventType    string `json:"eventType"`
	Total        int64  `json:"total"`
	Succeeded    int64  `json:"succeeded"`
	AvgLatencyMS int64  `json:"avgLatencyMs"`
}

type countryStats struct {
	Country string `json:"country"`
	Total   int64  `json:"total"`
}

// StatsSummary aggregates the last 24 hours of usage events.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QStats24h)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: load stats failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	events := []eventStats{}
	for rows.Next() {
		var e eventStats
		if err := rows.Scan(&e.EventType, &e.Total, &e.Succeeded, &e.AvgLatencyMS); err != nil {
			rows.Close()
			a.error(w, r, http.StatusInternalServerError, "internal")
			return
		}
		events = append(events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: scan stats failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	rows, err = a.SQL.Query(r.Context(), sqlinline.QStatsCountries24h)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: load country stats failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	defer rows.Close()
	countries := []countryStats{}
	for rows.Next() {
		var c countryStats
		if err := rows.Scan(&c.Country, &c.Total); err != nil {
			a.error(w, r, http.StatusInternalServerError, "internal")
			return
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: scan country stats failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"events":    events,
		"countries": countries,
	})
}
