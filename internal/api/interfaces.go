package api

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/neexbeast/travel-vibes/internal/auth"
	"github.com/neexbeast/travel-vibes/internal/itinerary"
	"github.com/neexbeast/travel-vibes/internal/places"
	"github.com/neexbeast/travel-vibes/internal/storage"
)

// UserRepo defines the account storage operations needed by handlers.
type UserRepo interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (*storage.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error)
}

// TripRepo defines the trip storage operations needed by handlers.
// Every call is scoped to the authenticated user.
type TripRepo interface {
	ListTrips(ctx context.Context, userID uuid.UUID) ([]itinerary.Trip, error)
	GetTrip(ctx context.Context, userID uuid.UUID, tripID string) (*itinerary.Trip, error)
	CreateTrip(ctx context.Context, userID uuid.UUID, d itinerary.TripDetails) (*itinerary.Trip, error)
	UpdateTrip(ctx context.Context, userID uuid.UUID, tripID string, d itinerary.TripDetails) (*itinerary.Trip, error)
	DeleteTrip(ctx context.Context, userID uuid.UUID, tripID string) (bool, error)
	MutateFavorites(ctx context.Context, userID uuid.UUID, tripID string, fn storage.FavoritesFunc) (*itinerary.Trip, error)
}

// PlacesService defines the provider proxy operations needed by handlers.
type PlacesService interface {
	Geocode(ctx context.Context, q places.GeocodeQuery) (json.RawMessage, error)
	Image(ctx context.Context, query string, page int) (string, error)
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, error)
	Verify(token string) (*auth.Claims, error)
}
