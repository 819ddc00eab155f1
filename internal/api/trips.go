package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

type tripResponse struct {
	Trip itinerary.Trip `json:"trip"`
}

type tripsResponse struct {
	Trips []itinerary.Trip `json:"trips"`
}

func (h *Handlers) userID(r *http.Request) uuid.UUID {
	id, _ := UserIDFromContext(r.Context())
	return id
}

func writeTripNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Trip not found.", nil)
}

// ListTrips handles GET /api/trips.
func (h *Handlers) ListTrips(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	trips, err := h.trips.ListTrips(r.Context(), userID)
	if err != nil {
		h.internalError(w, "list trips failed", "user_id", userID, "err", err)
		return
	}
	writeData(w, http.StatusOK, tripsResponse{Trips: trips})
}

// GetTrip handles GET /api/trips/{tripID}.
func (h *Handlers) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	trip, err := h.trips.GetTrip(r.Context(), h.userID(r), tripID)
	if err != nil {
		h.internalError(w, "get trip failed", "trip_id", tripID, "err", err)
		return
	}
	if trip == nil {
		writeTripNotFound(w)
		return
	}
	writeData(w, http.StatusOK, tripResponse{Trip: *trip})
}

// CreateTrip handles POST /api/trips.
func (h *Handlers) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var details itinerary.TripDetails
	if !decodeJSON(w, r, &details) {
		return
	}
	if err := itinerary.ValidateTripDetails(details); err != nil {
		writeValidation(w, err)
		return
	}

	trip, err := h.trips.CreateTrip(r.Context(), h.userID(r), details)
	if err != nil {
		h.internalError(w, "create trip failed", "name", details.Name, "err", err)
		return
	}
	writeData(w, http.StatusCreated, tripResponse{Trip: *trip})
}

// UpdateTrip handles PUT /api/trips/{tripID}. Favorites are not touched.
func (h *Handlers) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	var details itinerary.TripDetails
	if !decodeJSON(w, r, &details) {
		return
	}
	if err := itinerary.ValidateTripDetails(details); err != nil {
		writeValidation(w, err)
		return
	}

	trip, err := h.trips.UpdateTrip(r.Context(), h.userID(r), tripID, details)
	if err != nil {
		h.internalError(w, "update trip failed", "trip_id", tripID, "err", err)
		return
	}
	if trip == nil {
		writeTripNotFound(w)
		return
	}
	writeData(w, http.StatusOK, tripResponse{Trip: *trip})
}

// DeleteTrip handles DELETE /api/trips/{tripID}.
func (h *Handlers) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	deleted, err := h.trips.DeleteTrip(r.Context(), h.userID(r), tripID)
	if err != nil {
		h.internalError(w, "delete trip failed", "trip_id", tripID, "err", err)
		return
	}
	if !deleted {
		writeTripNotFound(w)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": tripID})
}

// AddFavorite handles POST /api/trips/{tripID}/favorites.
// A place already in the trip answers 200 with the unchanged trip.
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	var place itinerary.Place
	if !decodeJSON(w, r, &place) {
		return
	}
	if err := itinerary.ValidatePlace(place); err != nil {
		writeValidation(w, err)
		return
	}

	var added bool
	trip, err := h.trips.MutateFavorites(r.Context(), h.userID(r), tripID,
		func(favs []itinerary.Place) ([]itinerary.Place, bool, error) {
			var out []itinerary.Place
			out, added = itinerary.AddFavorite(favs, place)
			return out, added, nil
		})
	if err != nil {
		h.internalError(w, "add favorite failed", "trip_id", tripID, "place_id", place.ID, "err", err)
		return
	}
	if trip == nil {
		writeTripNotFound(w)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeData(w, status, tripResponse{Trip: *trip})
}

// RemoveFavorite handles DELETE /api/trips/{tripID}/favorites/{placeID}.
// Removing a place that is not in the trip is a no-op.
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	placeID := chi.URLParam(r, "placeID")

	trip, err := h.trips.MutateFavorites(r.Context(), h.userID(r), tripID,
		func(favs []itinerary.Place) ([]itinerary.Place, bool, error) {
			out, removed := itinerary.RemoveFavorite(favs, placeID)
			return out, removed, nil
		})
	if err != nil {
		h.internalError(w, "remove favorite failed", "trip_id", tripID, "place_id", placeID, "err", err)
		return
	}
	if trip == nil {
		writeTripNotFound(w)
		return
	}
	writeData(w, http.StatusOK, tripResponse{Trip: *trip})
}

// UpdateFavorite handles PATCH /api/trips/{tripID}/favorites/{placeID}.
// An explicit null for assignedDay or assignedTime clears the field. Updating a
// place that is not in the trip is a no-op.
func (h *Handlers) UpdateFavorite(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	placeID := chi.URLParam(r, "placeID")

	var upd itinerary.PlaceUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	if err := upd.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	trip, err := h.trips.MutateFavorites(r.Context(), h.userID(r), tripID,
		func(favs []itinerary.Place) ([]itinerary.Place, bool, error) {
			if upd.Empty() || !itinerary.Contains(favs, placeID) {
				return favs, false, nil
			}
			out, _ := itinerary.UpdateFavorite(favs, placeID, upd)
			return out, true, nil
		})
	if err != nil {
		h.internalError(w, "update favorite failed", "trip_id", tripID, "place_id", placeID, "err", err)
		return
	}
	if trip == nil {
		writeTripNotFound(w)
		return
	}
	writeData(w, http.StatusOK, tripResponse{Trip: *trip})
}
