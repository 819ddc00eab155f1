package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/neexbeast/travel-vibes/internal/places"
)

// Geocode handles GET /api/places/geocode?text=&type=&limit=.
// The provider's FeatureCollection is passed through untouched.
func (h *Handlers) Geocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("text"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "Query parameter text is required.", nil)
		return
	}
	kind := q.Get("type")
	if kind == "" {
		kind = "city"
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	raw, err := h.places.Geocode(r.Context(), places.GeocodeQuery{Text: text, Type: kind, Limit: limit})
	if err != nil {
		h.log.Error("geocode failed", "text", text, "err", err)
		writeError(w, http.StatusBadGateway, "Location search is unavailable right now.", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

type imageResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    *imageData `json:"data,omitempty"`
}

type imageData struct {
	ImageURL string `json:"imageUrl"`
}

// Image handles GET /api/places/image?query=&page=.
// A query with no photo answers success=false.
func (h *Handlers) Image(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, imageResponse{Message: "Query parameter query is required."})
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))

	imageURL, err := h.places.Image(r.Context(), query, page)
	if err != nil {
		h.log.Error("image search failed", "query", query, "err", err)
		writeJSON(w, http.StatusBadGateway, imageResponse{Message: "Image search is unavailable right now."})
		return
	}
	if imageURL == "" {
		writeJSON(w, http.StatusOK, imageResponse{Message: "No image found."})
		return
	}
	writeJSON(w, http.StatusOK, imageResponse{Success: true, Data: &imageData{ImageURL: imageURL}})
}
