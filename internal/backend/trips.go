package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
	"github.com/neexbeast/travel-vibes/internal/request"
)

func tripPath(id string) string {
	return "/trips/" + url.PathEscape(id)
}

func favoritePath(tripID, placeID string) string {
	return tripPath(tripID) + "/favorites/" + url.PathEscape(placeID)
}

// ListTrips returns the user's trips.
func (c *Client) ListTrips(ctx context.Context) ([]itinerary.Trip, error) {
	var env envelope[tripsData]
	if err := c.get(ctx, "/trips", &env); err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	return env.Data.trips(), nil
}

// GetTrip returns one trip.
func (c *Client) GetTrip(ctx context.Context, id string) (itinerary.Trip, error) {
	return c.tripCall(ctx, http.MethodGet, tripPath(id), nil, "fetching trip "+id)
}

// CreateTrip creates a trip on the server and returns the stored copy.
func (c *Client) CreateTrip(ctx context.Context, details itinerary.TripDetails) (itinerary.Trip, error) {
	return c.tripCall(ctx, http.MethodPost, "/trips", details, "creating trip")
}

// UpdateTrip replaces the trip's details.
func (c *Client) UpdateTrip(ctx context.Context, id string, details itinerary.TripDetails) (itinerary.Trip, error) {
	return c.tripCall(ctx, http.MethodPut, tripPath(id), details, "updating trip "+id)
}

// DeleteTrip deletes the trip.
func (c *Client) DeleteTrip(ctx context.Context, id string) error {
	if err := c.do(ctx, c.http, http.MethodDelete, tripPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting trip %s: %w", id, err)
	}
	return nil
}

// AddFavorite adds place to the trip.
func (c *Client) AddFavorite(ctx context.Context, tripID string, place itinerary.Place) (itinerary.Trip, error) {
	return c.tripCall(ctx, http.MethodPost, tripPath(tripID)+"/favorites", place,
		fmt.Sprintf("adding favorite %s to trip %s", place.ID, tripID))
}

// RemoveFavorite removes a place from the trip.
func (c *Client) RemoveFavorite(ctx context.Context, tripID, placeID string) (itinerary.Trip, error) {
	return c.tripCall(ctx, http.MethodDelete, favoritePath(tripID, placeID), nil,
		fmt.Sprintf("removing favorite %s from trip %s", placeID, tripID))
}

// UpdateFavorite applies a partial update to a favorite in the trip.
func (c *Client) UpdateFavorite(ctx context.Context, tripID, placeID string, upd itinerary.PlaceUpdate) (itinerary.Trip, error) {
	return c.tripCall(ctx, http.MethodPatch, favoritePath(tripID, placeID), upd,
		fmt.Sprintf("updating favorite %s in trip %s", placeID, tripID))
}

// tripCall performs a request answered with {"data":{"trip":...}}.
func (c *Client) tripCall(ctx context.Context, method, path string, body any, what string) (itinerary.Trip, error) {
	var env envelope[tripData]
	if err := c.do(ctx, c.http, method, path, body, &env); err != nil {
		return itinerary.Trip{}, fmt.Errorf("%s: %w", what, err)
	}
	return env.Data.Trip.trip(), nil
}

// TripsFetcher adapts ListTrips-style reads for a request.Tracker: the tracked
// URL is fetched and its trips envelope unwrapped.
func TripsFetcher(c *Client) request.FetchFunc[[]itinerary.Trip] {
	return func(ctx context.Context, path string) ([]itinerary.Trip, error) {
		var env envelope[tripsData]
		if err := c.get(ctx, path, &env); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", path, err)
		}
		return env.Data.trips(), nil
	}
}
