package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

// ErrConflict is returned when an insert violates a unique constraint.
var ErrConflict = errors.New("record already exists")

const uniqueViolation = "23505"

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides database access for users and trips.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// User is a stored account.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ---- users ----

// CreateUser inserts a user. A duplicate email returns ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error) {
	u := User{ID: uuid.New(), Name: name, Email: email, PasswordHash: passwordHash}

	const q = `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	if err := r.q.QueryRow(ctx, q, u.ID, name, email, passwordHash).Scan(&u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating user %s: %w", email, ErrConflict)
		}
		return nil, fmt.Errorf("creating user %s: %w", email, err)
	}
	return &u, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
// Returns nil, nil when no user matches.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
		SELECT id::text, name, email, password_hash, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`
	u, err := scanUser(r.q.QueryRow(ctx, q, email))
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", email, err)
	}
	return u, nil
}

// GetUserByID returns nil, nil when the user does not exist.
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	const q = `
		SELECT id::text, name, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	u, err := scanUser(r.q.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", id, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var id string
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing user id %q: %w", id, err)
	}
	u.ID = parsed
	return &u, nil
}

// ---- trips ----

const tripColumns = `id::text, name, destination, start_date, end_date, vibe, travelers, favorites, created_at, updated_at`

// scanTrip reads one row of tripColumns. pgx.Rows satisfies pgx.Row.
func scanTrip(row pgx.Row) (*itinerary.Trip, error) {
	var t itinerary.Trip
	var start, end *time.Time
	var favJSON []byte

	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Destination,
		&start,
		&end,
		&t.Vibe,
		&t.Travelers,
		&favJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if start != nil {
		t.StartDate = start.Format(itinerary.DateLayout)
	}
	if end != nil {
		t.EndDate = end.Format(itinerary.DateLayout)
	}
	t.Favorites = []itinerary.Place{}
	if len(favJSON) > 0 {
		if err := json.Unmarshal(favJSON, &t.Favorites); err != nil {
			return nil, fmt.Errorf("unmarshaling favorites for trip %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

// dateArg converts an optional ISO date into a DATE parameter.
func dateArg(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := itinerary.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func detailArgs(d itinerary.TripDetails) (start, end *time.Time, travelers int, err error) {
	if start, err = dateArg(d.StartDate); err != nil {
		return nil, nil, 0, err
	}
	if end, err = dateArg(d.EndDate); err != nil {
		return nil, nil, 0, err
	}
	travelers = max(d.Travelers, 1)
	return start, end, travelers, nil
}

// parseTripID treats a malformed ID as an ID that matches nothing.
func parseTripID(id string) (uuid.UUID, bool) {
	u, err := uuid.Parse(id)
	return u, err == nil
}

// ListTrips returns the user's trips, oldest first.
func (r *Repository) ListTrips(ctx context.Context, userID uuid.UUID) ([]itinerary.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying trips for user %s: %w", userID, err)
	}
	defer rows.Close()

	trips := []itinerary.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trip row: %w", err)
		}
		trips = append(trips, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trip rows: %w", err)
	}
	return trips, nil
}

// GetTrip returns nil, nil when the trip does not exist or belongs to another user.
func (r *Repository) GetTrip(ctx context.Context, userID uuid.UUID, tripID string) (*itinerary.Trip, error) {
	id, ok := parseTripID(tripID)
	if !ok {
		return nil, nil
	}
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 AND user_id = $2`

	t, err := scanTrip(r.q.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying trip %s: %w", tripID, err)
	}
	return t, nil
}

// CreateTrip inserts a trip with no favorites.
func (r *Repository) CreateTrip(ctx context.Context, userID uuid.UUID, d itinerary.TripDetails) (*itinerary.Trip, error) {
	start, end, travelers, err := detailArgs(d)
	if err != nil {
		return nil, fmt.Errorf("creating trip %q: %w", d.Name, err)
	}

	const q = `
		INSERT INTO trips (id, user_id, name, destination, start_date, end_date, vibe, travelers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + tripColumns

	t, err := scanTrip(r.q.QueryRow(ctx, q, uuid.New(), userID, d.Name, d.Destination, start, end, d.Vibe, travelers))
	if err != nil {
		return nil, fmt.Errorf("creating trip %q: %w", d.Name, err)
	}
	return t, nil
}

// UpdateTrip replaces the trip's details and leaves its favorites alone.
// Returns nil, nil when the trip does not exist for the user.
func (r *Repository) UpdateTrip(ctx context.Context, userID uuid.UUID, tripID string, d itinerary.TripDetails) (*itinerary.Trip, error) {
	id, ok := parseTripID(tripID)
	if !ok {
		return nil, nil
	}
	start, end, travelers, err := detailArgs(d)
	if err != nil {
		return nil, fmt.Errorf("updating trip %s: %w", tripID, err)
	}

	const q = `
		UPDATE trips
		SET name        = $3,
		    destination = $4,
		    start_date  = $5,
		    end_date    = $6,
		    vibe        = $7,
		    travelers   = $8,
		    updated_at  = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + tripColumns

	t, err := scanTrip(r.q.QueryRow(ctx, q, id, userID, d.Name, d.Destination, start, end, d.Vibe, travelers))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating trip %s: %w", tripID, err)
	}
	return t, nil
}

// DeleteTrip removes the trip and reports whether it existed.
func (r *Repository) DeleteTrip(ctx context.Context, userID uuid.UUID, tripID string) (bool, error) {
	id, ok := parseTripID(tripID)
	if !ok {
		return false, nil
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM trips WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting trip %s: %w", tripID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// FavoritesFunc edits a trip's favorites. It returns the new list and whether
// anything changed; an error aborts the edit.
type FavoritesFunc func(favs []itinerary.Place) ([]itinerary.Place, bool, error)

// MutateFavorites locks the trip row, applies fn to its favorites and writes
// them back when fn reports a change. The returned trip is the stored state
// after the edit. Returns nil, nil when the trip does not exist for the user.
func (r *Repository) MutateFavorites(ctx context.Context, userID uuid.UUID, tripID string, fn FavoritesFunc) (_ *itinerary.Trip, err error) {
	id, ok := parseTripID(tripID)
	if !ok {
		return nil, nil
	}

	tx, err := r.q.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction for trip %s: %w", tripID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const selectQ = `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 AND user_id = $2 FOR UPDATE`
	trip, err := scanTrip(tx.QueryRow(ctx, selectQ, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = tx.Rollback(ctx)
			return nil, nil
		}
		return nil, fmt.Errorf("locking trip %s: %w", tripID, err)
	}

	favs, changed, err := fn(trip.Favorites)
	if err != nil {
		return nil, err
	}

	if changed {
		favJSON, mErr := json.Marshal(favs)
		if mErr != nil {
			err = fmt.Errorf("marshaling favorites for trip %s: %w", tripID, mErr)
			return nil, err
		}
		const updateQ = `
			UPDATE trips SET favorites = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + tripColumns
		trip, err = scanTrip(tx.QueryRow(ctx, updateQ, id, favJSON))
		if err != nil {
			return nil, fmt.Errorf("saving favorites for trip %s: %w", tripID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing favorites for trip %s: %w", tripID, err)
	}
	return trip, nil
}
