package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

// LocalFavorites is the offline favorites list kept outside any trip.
// It never talks to the backend.
type LocalFavorites struct {
	storage *Storage
}

// NewLocalFavorites returns the list stored in st.
func NewLocalFavorites(st *Storage) *LocalFavorites {
	return &LocalFavorites{storage: st}
}

// List returns the favorites in the order they were added.
func (f *LocalFavorites) List(ctx context.Context) ([]itinerary.Place, error) {
	raw, ok, err := f.storage.Get(ctx, KeyLocalFavorites)
	if err != nil {
		return nil, err
	}
	return decodePlaces(raw, ok)
}

// IsFavorite reports whether a place with id is in the list.
func (f *LocalFavorites) IsFavorite(ctx context.Context, id string) (bool, error) {
	favs, err := f.List(ctx)
	if err != nil {
		return false, err
	}
	return itinerary.Contains(favs, id), nil
}

// Add appends place unless it is already present and reports whether it was added.
func (f *LocalFavorites) Add(ctx context.Context, place itinerary.Place) (bool, error) {
	var added bool
	err := f.update(ctx, func(favs []itinerary.Place) []itinerary.Place {
		favs, added = itinerary.AddFavorite(favs, place)
		return favs
	})
	return added, err
}

// Remove drops the place with id and reports whether it was present.
func (f *LocalFavorites) Remove(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := f.update(ctx, func(favs []itinerary.Place) []itinerary.Place {
		favs, removed = itinerary.RemoveFavorite(favs, id)
		return favs
	})
	return removed, err
}

// Toggle adds place when absent and removes it when present.
// It returns whether the place is a favorite afterwards.
func (f *LocalFavorites) Toggle(ctx context.Context, place itinerary.Place) (bool, error) {
	var now bool
	err := f.update(ctx, func(favs []itinerary.Place) []itinerary.Place {
		if out, removed := itinerary.RemoveFavorite(favs, place.ID); removed {
			now = false
			return out
		}
		out, _ := itinerary.AddFavorite(favs, place)
		now = true
		return out
	})
	return now, err
}

func (f *LocalFavorites) update(ctx context.Context, fn func([]itinerary.Place) []itinerary.Place) error {
	return f.storage.Update(ctx, KeyLocalFavorites, func(cur string, ok bool) (string, error) {
		favs, err := decodePlaces(cur, ok)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(fn(favs))
		if err != nil {
			return "", fmt.Errorf("marshaling local favorites: %w", err)
		}
		return string(b), nil
	})
}

func decodePlaces(raw string, ok bool) ([]itinerary.Place, error) {
	if !ok || raw == "" {
		return []itinerary.Place{}, nil
	}
	var favs []itinerary.Place
	if err := json.Unmarshal([]byte(raw), &favs); err != nil {
		return nil, fmt.Errorf("unmarshaling local favorites: %w", err)
	}
	if favs == nil {
		favs = []itinerary.Place{}
	}
	return favs, nil
}
