package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// MapsClient proxies the mapping provider. *geo.Client satisfies it.
type MapsClient interface {
	Autocomplete(ctx context.Context, input string) ([]byte, error)
	ReverseGeocode(ctx context.Context, lat, lng string) ([]byte, error)
}

// PlacesHandler proxies address lookups for the booking form.
//
// Routes handled:
// - GET /api/places/autocomplete    -> Autocomplete
// - GET /api/places/reverse-geocode -> ReverseGeocode
type PlacesHandler struct {
	maps   MapsClient
	logger *slog.Logger
}

// NewPlacesHandler creates the places proxy handler.
func NewPlacesHandler(maps MapsClient, logger *slog.Logger) *PlacesHandler {
	return &PlacesHandler{maps: maps, logger: logger}
}

// Autocomplete handles GET /api/places/autocomplete?input=...
func (h *PlacesHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	body, err := h.maps.Autocomplete(r.Context(), r.URL.Query().Get("input"))
	if err != nil {
		h.logger.Error("autocomplete proxy failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "Address lookup is unavailable."})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// ReverseGeocode handles GET /api/places/reverse-geocode?lat=...&lng=...
func (h *PlacesHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat := r.URL.Query().Get("lat")
	lng := r.URL.Query().Get("lng")
	if lat == "" || lng == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing coordinates."})
		return
	}

	body, err := h.maps.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		h.logger.Error("reverse geocode proxy failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "Address lookup is unavailable."})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
