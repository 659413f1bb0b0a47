package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/theogognf/toi/pkg/types"
)

// WeatherHandler serves US weather data for a free-form location query.
type WeatherHandler struct {
	forecaster Forecaster
}

// NewWeatherHandler creates a new WeatherHandler instance.
func NewWeatherHandler(forecaster Forecaster) *WeatherHandler {
	return &WeatherHandler{forecaster: forecaster}
}

// Alerts handles GET /weather/alerts.
func (h *WeatherHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.forecaster.Alerts)
}

// GridpointForecast handles GET /weather/forecast/gridpoint.
func (h *WeatherHandler) GridpointForecast(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.forecaster.GridpointForecast)
}

// ZoneForecast handles GET /weather/forecast/zone.
func (h *WeatherHandler) ZoneForecast(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.forecaster.ZoneForecast)
}

func (h *WeatherHandler) serve(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) (json.RawMessage, error)) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, r, types.Validation("query is required"))
		return
	}
	data, err := fetch(r.Context(), query)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, data)
}
