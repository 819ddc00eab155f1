// Package planner keeps the local trip store in step with the backend.
//
// Every operation talks to the server first and only touches the store once the
// server has answered, replacing the affected trip with the server's copy.
// Failures are reported through Result and Status; nothing is returned as a Go
// error and a failed operation never mutates the store.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
	"github.com/neexbeast/travel-vibes/internal/store"
)

// ErrNoCurrentTrip rejects favorite edits made while no trip is selected.
var ErrNoCurrentTrip = errors.New("no current trip selected")

// Backend is the subset of the REST client the planner needs.
type Backend interface {
	ListTrips(ctx context.Context) ([]itinerary.Trip, error)
	CreateTrip(ctx context.Context, details itinerary.TripDetails) (itinerary.Trip, error)
	UpdateTrip(ctx context.Context, id string, details itinerary.TripDetails) (itinerary.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
	AddFavorite(ctx context.Context, tripID string, place itinerary.Place) (itinerary.Trip, error)
	RemoveFavorite(ctx context.Context, tripID, placeID string) (itinerary.Trip, error)
	UpdateFavorite(ctx context.Context, tripID, placeID string, upd itinerary.PlaceUpdate) (itinerary.Trip, error)
}

// Status is the shared loading/error state shown next to the trip list.
type Status struct {
	Loading bool
	Err     error
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the planner's logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Planner) { p.log = log }
}

// WithClock replaces time.Now for the implicit trip's dates.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// Planner runs trip and favorite operations against the backend.
type Planner struct {
	backend Backend
	store   *store.Store
	log     *slog.Logger
	now     func() time.Time

	// ensureMu serializes the "create a trip if none is current" step.
	ensureMu sync.Mutex

	mu       sync.Mutex
	inFlight int
	err      error
}

// New returns a Planner reconciling st with b.
func New(b Backend, st *store.Store, opts ...Option) *Planner {
	p := &Planner{
		backend: b,
		store:   st,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Status returns the current loading and error state.
func (p *Planner) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{Loading: p.inFlight > 0, Err: p.err}
}

func (p *Planner) begin() {
	p.mu.Lock()
	p.inFlight++
	p.err = nil
	p.mu.Unlock()
}

func (p *Planner) end(op string, err error) {
	p.mu.Lock()
	p.inFlight--
	if err != nil {
		p.err = err
	}
	p.mu.Unlock()
	if err != nil {
		p.log.Warn("planner operation failed", "op", op, "err", err)
	}
}

// run wraps one operation with status bookkeeping and panic recovery.
func run[T any](p *Planner, op string, fn func() (T, error)) (res Result[T]) {
	p.begin()
	defer func() {
		if r := recover(); r != nil {
			res = rejected[T](fmt.Errorf("%s panicked: %v", op, r))
		}
		p.end(op, res.Err)
	}()
	v, err := fn()
	if err != nil {
		return rejected[T](err)
	}
	return fulfilled(v)
}

// LoadTrips replaces the store's trips with the server's list.
func (p *Planner) LoadTrips(ctx context.Context) Result[[]itinerary.Trip] {
	return run(p, "load trips", func() ([]itinerary.Trip, error) {
		trips, err := p.backend.ListTrips(ctx)
		if err != nil {
			return nil, err
		}
		p.store.SetTrips(trips)
		return trips, nil
	})
}

// CreateTrip creates a trip on the server, adds it to the store and selects it.
func (p *Planner) CreateTrip(ctx context.Context, details itinerary.TripDetails) Result[itinerary.Trip] {
	return run(p, "create trip", func() (itinerary.Trip, error) {
		if err := itinerary.ValidateTripDetails(details); err != nil {
			return itinerary.Trip{}, err
		}
		trip, err := p.backend.CreateTrip(ctx, details)
		if err != nil {
			return itinerary.Trip{}, err
		}
		p.store.InsertTrip(trip)
		p.store.SelectTrip(trip.ID)
		return trip, nil
	})
}

// UpdateTrip saves new details for a trip.
func (p *Planner) UpdateTrip(ctx context.Context, id string, details itinerary.TripDetails) Result[itinerary.Trip] {
	return run(p, "update trip", func() (itinerary.Trip, error) {
		if err := itinerary.ValidateTripDetails(details); err != nil {
			return itinerary.Trip{}, err
		}
		trip, err := p.backend.UpdateTrip(ctx, id, details)
		if err != nil {
			return itinerary.Trip{}, err
		}
		p.store.ReplaceTrip(trip)
		return trip, nil
	})
}

// DeleteTrip deletes a trip and drops it from the store.
func (p *Planner) DeleteTrip(ctx context.Context, id string) Result[string] {
	return run(p, "delete trip", func() (string, error) {
		if err := p.backend.DeleteTrip(ctx, id); err != nil {
			return "", err
		}
		p.store.DeleteTrip(id)
		return id, nil
	})
}

// AddFavorite adds place to the current trip. When no trip is current a
// "My Trip" trip is created on the server first and selected.
func (p *Planner) AddFavorite(ctx context.Context, place itinerary.Place) Result[itinerary.Trip] {
	return run(p, "add favorite", func() (itinerary.Trip, error) {
		if err := itinerary.ValidatePlace(place); err != nil {
			return itinerary.Trip{}, err
		}
		tripID, err := p.ensureTrip(ctx, place)
		if err != nil {
			return itinerary.Trip{}, err
		}
		trip, err := p.backend.AddFavorite(ctx, tripID, place)
		if err != nil {
			return itinerary.Trip{}, err
		}
		p.store.ReplaceTrip(trip)
		return trip, nil
	})
}

// ensureTrip returns the current trip ID, creating the implicit trip when there
// is none. The current trip is read from the store under ensureMu, after any
// earlier caller's creation has landed, so concurrent callers share one trip.
func (p *Planner) ensureTrip(ctx context.Context, place itinerary.Place) (string, error) {
	p.ensureMu.Lock()
	defer p.ensureMu.Unlock()

	if cur, ok := p.store.CurrentTrip(); ok {
		return cur.ID, nil
	}
	trip, err := p.backend.CreateTrip(ctx, itinerary.DefaultTripDetails(place, p.now()))
	if err != nil {
		return "", fmt.Errorf("creating default trip: %w", err)
	}
	p.store.InsertTrip(trip)
	p.store.SelectTrip(trip.ID)
	p.log.Info("created default trip", "trip_id", trip.ID)
	return trip.ID, nil
}

// RemoveFavorite removes a place from the current trip.
func (p *Planner) RemoveFavorite(ctx context.Context, placeID string) Result[itinerary.Trip] {
	return run(p, "remove favorite", func() (itinerary.Trip, error) {
		cur, ok := p.store.CurrentTrip()
		if !ok {
			return itinerary.Trip{}, ErrNoCurrentTrip
		}
		trip, err := p.backend.RemoveFavorite(ctx, cur.ID, placeID)
		if err != nil {
			return itinerary.Trip{}, err
		}
		p.store.ReplaceTrip(trip)
		return trip, nil
	})
}

// UpdateFavorite applies upd to a place in the current trip.
func (p *Planner) UpdateFavorite(ctx context.Context, placeID string, upd itinerary.PlaceUpdate) Result[itinerary.Trip] {
	return run(p, "update favorite", func() (itinerary.Trip, error) {
		if err := upd.Validate(); err != nil {
			return itinerary.Trip{}, err
		}
		cur, ok := p.store.CurrentTrip()
		if !ok {
			return itinerary.Trip{}, ErrNoCurrentTrip
		}
		trip, err := p.backend.UpdateFavorite(ctx, cur.ID, placeID, upd)
		if err != nil {
			return itinerary.Trip{}, err
		}
		p.store.ReplaceTrip(trip)
		return trip, nil
	})
}

// AssignPlaceToDay schedules a place on day, or unschedules it when day is nil.
func (p *Planner) AssignPlaceToDay(ctx context.Context, placeID string, day *int) Result[itinerary.Trip] {
	return p.UpdateFavorite(ctx, placeID, itinerary.AssignDay(day))
}

// UpdatePlaceTime sets or clears a place's time slot.
func (p *Planner) UpdatePlaceTime(ctx context.Context, placeID string, hhmm *string) Result[itinerary.Trip] {
	return p.UpdateFavorite(ctx, placeID, itinerary.AssignTime(hhmm))
}
