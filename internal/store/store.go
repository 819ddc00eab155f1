// Package store keeps the client's trips and the currently selected trip in memory.
//
// Every operation takes the store's lock for its whole duration, so each one is
// atomic with respect to the others. Operations that reference a missing trip or
// place are silent no-ops. Readers always receive deep copies.
package store

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, used for generated trip IDs and the implicit trip's dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for debug traces of store mutations.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Store is the in-memory trip collection.
type Store struct {
	mu            sync.RWMutex
	trips         []itinerary.Trip
	currentTripID string

	now func() time.Time
	log *slog.Logger
}

// New returns an empty store with no current trip.
func New(opts ...Option) *Store {
	s := &Store{
		now: time.Now,
		log: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateTrip appends a trip built from details, selects it and returns its ID.
func (s *Store) CreateTrip(details itinerary.TripDetails) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(details)
}

func (s *Store) createLocked(details itinerary.TripDetails) string {
	now := s.now()
	trip := details.Apply(itinerary.Trip{
		ID:        s.nextIDLocked(now),
		Favorites: []itinerary.Place{},
		CreatedAt: now,
	})
	s.trips = append(s.trips, trip)
	s.currentTripID = trip.ID
	s.log.Debug("trip created", "trip_id", trip.ID, "name", trip.Name)
	return trip.ID
}

// nextIDLocked returns the creation time in milliseconds, bumped past any ID already in use.
func (s *Store) nextIDLocked(now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if s.indexLocked(id) < 0 {
			return id
		}
		ms++
	}
}

// DeleteTrip removes the trip. Deleting the current trip clears the selection.
func (s *Store) DeleteTrip(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	s.trips = slices.Delete(s.trips, i, i+1)
	if s.currentTripID == id {
		s.currentTripID = ""
	}
	s.log.Debug("trip deleted", "trip_id", id)
}

// SelectTrip makes id the current trip. An empty id clears the selection.
// The id is not checked against the trip list; a stale selection reads as no trip.
func (s *Store) SelectTrip(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTripID = id
}

// SetCurrentTrip is an alias of SelectTrip.
func (s *Store) SetCurrentTrip(id string) { s.SelectTrip(id) }

// CurrentTripID returns the selected trip ID, empty when none.
func (s *Store) CurrentTripID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTripID
}

// CurrentTrip returns the selected trip. It reports false when nothing is selected
// or the selection no longer matches a trip.
func (s *Store) CurrentTrip() (itinerary.Trip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(s.currentTripID)
	if i < 0 {
		return itinerary.Trip{}, false
	}
	return s.trips[i].Clone(), true
}

// Trips returns every trip in insertion order.
func (s *Store) Trips() []itinerary.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]itinerary.Trip, len(s.trips))
	for i, t := range s.trips {
		out[i] = t.Clone()
	}
	return out
}

// Trip looks up a trip by ID.
func (s *Store) Trip(id string) (itinerary.Trip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return itinerary.Trip{}, false
	}
	return s.trips[i].Clone(), true
}

// AddToFavorites adds place to the current trip, creating and selecting a
// "My Trip" trip first when none is current. It returns the trip the place
// belongs to and whether it was newly added.
func (s *Store) AddToFavorites(place itinerary.Place) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(s.currentTripID)
	if i < 0 {
		s.createLocked(itinerary.DefaultTripDetails(place, s.now()))
		i = len(s.trips) - 1
	}
	trip := &s.trips[i]
	favs, added := itinerary.AddFavorite(trip.Favorites, place)
	if added {
		trip.Favorites = favs
		trip.UpdatedAt = s.now()
	}
	return trip.ID, added
}

// RemoveFromFavorites drops the place from the current trip.
func (s *Store) RemoveFromFavorites(placeID string) {
	s.mutateCurrent(func(favs []itinerary.Place) ([]itinerary.Place, bool) {
		return itinerary.RemoveFavorite(favs, placeID)
	})
}

// UpdateFavoritePlace merges upd into the place in the current trip.
func (s *Store) UpdateFavoritePlace(placeID string, upd itinerary.PlaceUpdate) {
	s.mutateCurrent(func(favs []itinerary.Place) ([]itinerary.Place, bool) {
		return itinerary.UpdateFavorite(favs, placeID, upd)
	})
}

// AssignPlaceToDay schedules the place on day, or unschedules it when day is nil.
// The time slot is left as is.
func (s *Store) AssignPlaceToDay(placeID string, day *int) {
	s.UpdateFavoritePlace(placeID, itinerary.AssignDay(day))
}

// UpdatePlaceTime sets or clears the place's time slot.
func (s *Store) UpdatePlaceTime(placeID string, hhmm *string) {
	s.UpdateFavoritePlace(placeID, itinerary.AssignTime(hhmm))
}

// IsFavorite reports whether the current trip holds the place.
func (s *Store) IsFavorite(placeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(s.currentTripID)
	return i >= 0 && itinerary.Contains(s.trips[i].Favorites, placeID)
}

func (s *Store) mutateCurrent(fn func([]itinerary.Place) ([]itinerary.Place, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(s.currentTripID)
	if i < 0 {
		return
	}
	favs, changed := fn(s.trips[i].Favorites)
	if changed {
		s.trips[i].Favorites = favs
		s.trips[i].UpdatedAt = s.now()
	}
}

// InsertTrip stores a server copy of a trip, replacing any trip with the same ID
// or appending it otherwise. The selection is unchanged.
func (s *Store) InsertTrip(trip itinerary.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(trip.ID); i >= 0 {
		s.trips[i] = trip.Clone()
		return
	}
	s.trips = append(s.trips, trip.Clone())
}

// ReplaceTrip swaps in trip when a trip with its ID is present and reports whether it was.
func (s *Store) ReplaceTrip(trip itinerary.Trip) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(trip.ID)
	if i < 0 {
		return false
	}
	s.trips[i] = trip.Clone()
	return true
}

// SetTrips replaces the whole collection. The selection survives only when it
// still names one of the new trips.
func (s *Store) SetTrips(trips []itinerary.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = make([]itinerary.Trip, len(trips))
	for i, t := range trips {
		s.trips[i] = t.Clone()
	}
	if s.indexLocked(s.currentTripID) < 0 {
		s.currentTripID = ""
	}
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.trips, func(t itinerary.Trip) bool { return t.ID == id })
}
