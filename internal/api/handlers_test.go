package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travel-vibes/internal/api"
	"github.com/neexbeast/travel-vibes/internal/auth"
	"github.com/neexbeast/travel-vibes/internal/itinerary"
	"github.com/neexbeast/travel-vibes/internal/places"
	"github.com/neexbeast/travel-vibes/internal/storage"
)

// ---- mock implementations ----

type mockUsers struct {
	createFn  func(ctx context.Context, name, email, hash string) (*storage.User, error)
	byEmailFn func(ctx context.Context, email string) (*storage.User, error)
	byIDFn    func(ctx context.Context, id uuid.UUID) (*storage.User, error)
}

func (m *mockUsers) CreateUser(ctx context.Context, name, email, hash string) (*storage.User, error) {
	return m.createFn(ctx, name, email, hash)
}
func (m *mockUsers) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return m.byEmailFn(ctx, email)
}
func (m *mockUsers) GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	return m.byIDFn(ctx, id)
}

// memTrips is an in-memory TripRepo scoped by user like the Postgres one.
type memTrips struct {
	mu    sync.Mutex
	trips map[string]itinerary.Trip
	owner map[string]uuid.UUID
	err   error
}

func newMemTrips() *memTrips {
	return &memTrips{trips: map[string]itinerary.Trip{}, owner: map[string]uuid.UUID{}}
}

func (m *memTrips) seed(userID uuid.UUID, t itinerary.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.Favorites == nil {
		t.Favorites = []itinerary.Place{}
	}
	m.trips[t.ID] = t
	m.owner[t.ID] = userID
}

func (m *memTrips) lookup(userID uuid.UUID, id string) (itinerary.Trip, bool) {
	t, ok := m.trips[id]
	if !ok || m.owner[id] != userID {
		return itinerary.Trip{}, false
	}
	return t, true
}

func (m *memTrips) ListTrips(_ context.Context, userID uuid.UUID) ([]itinerary.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []itinerary.Trip{}
	for id, t := range m.trips {
		if m.owner[id] == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTrips) GetTrip(_ context.Context, userID uuid.UUID, id string) (*itinerary.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.lookup(userID, id)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memTrips) CreateTrip(_ context.Context, userID uuid.UUID, d itinerary.TripDetails) (*itinerary.Trip, error) {
	if m.err != nil {
		return nil, m.err
	}
	t := d.Apply(itinerary.Trip{ID: uuid.NewString(), Favorites: []itinerary.Place{}, CreatedAt: time.Now()})
	m.seed(userID, t)
	return &t, nil
}

func (m *memTrips) UpdateTrip(_ context.Context, userID uuid.UUID, id string, d itinerary.TripDetails) (*itinerary.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.lookup(userID, id)
	if !ok {
		return nil, nil
	}
	t = d.Apply(t)
	m.trips[id] = t
	return &t, nil
}

func (m *memTrips) DeleteTrip(_ context.Context, userID uuid.UUID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(userID, id); !ok {
		return false, nil
	}
	delete(m.trips, id)
	return true, nil
}

func (m *memTrips) MutateFavorites(_ context.Context, userID uuid.UUID, id string, fn storage.FavoritesFunc) (*itinerary.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.lookup(userID, id)
	if !ok {
		return nil, nil
	}
	favs, changed, err := fn(t.Favorites)
	if err != nil {
		return nil, err
	}
	if changed {
		t.Favorites = favs
		m.trips[id] = t
	}
	return &t, nil
}

type mockPlaces struct {
	geocodeFn func(ctx context.Context, q places.GeocodeQuery) (json.RawMessage, error)
	imageFn   func(ctx context.Context, query string, page int) (string, error)
}

func (m *mockPlaces) Geocode(ctx context.Context, q places.GeocodeQuery) (json.RawMessage, error) {
	return m.geocodeFn(ctx, q)
}
func (m *mockPlaces) Image(ctx context.Context, query string, page int) (string, error) {
	return m.imageFn(ctx, query, page)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

var (
	testUserID = uuid.MustParse("3b1d2c7e-5a0f-4e44-9c1b-6a2f0e8d9c10")
	testTokens = auth.NewTokens("test-secret", time.Hour)
)

type deps struct {
	users  *mockUsers
	trips  *memTrips
	places *mockPlaces
	db     *mockPinger
	redis  *mockPinger
}

func newDeps() *deps {
	return &deps{
		users:  &mockUsers{},
		trips:  newMemTrips(),
		places: &mockPlaces{},
		db:     &mockPinger{},
		redis:  &mockPinger{},
	}
}

func (d *deps) router() http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(d.users, d.trips, d.places, testTokens, log)
	cfg := api.RouterConfig{CORSOrigins: []string{"http://localhost:5173"}, RateLimitPerMinute: 1000}
	return api.NewRouter(handlers, testTokens, d.db, d.redis, cfg, log)
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := testTokens.Issue(testUserID, "ana@example.com")
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(t *testing.T, h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if authed {
		req.Header.Set("Authorization", bearer(t))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type tripBody struct {
	Data struct {
		Trip  itinerary.Trip   `json:"trip"`
		Trips []itinerary.Trip `json:"trips"`
	} `json:"data"`
}

func decodeTrip(t *testing.T, w *httptest.ResponseRecorder) tripBody {
	t.Helper()
	var b tripBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&b))
	return b
}

type errBody struct {
	Message string                 `json:"message"`
	Errors  []itinerary.FieldError `json:"errors"`
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) errBody {
	t.Helper()
	var b errBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&b))
	return b
}

func lisbon() itinerary.Trip {
	return itinerary.Trip{ID: "trip-1", Name: "Lisbon", Destination: "Lisbon", Travelers: 2}
}

// ---- health ----

func TestHealth_OK(t *testing.T) {
	w := serve(t, newDeps().router(), http.MethodGet, "/api/health", "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","db":"ok","redis":"ok"}`, w.Body.String())
}

func TestHealth_RedisDown(t *testing.T) {
	d := newDeps()
	d.redis.err = fmt.Errorf("connection refused")

	w := serve(t, d.router(), http.MethodGet, "/api/health", "", false)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","db":"ok","redis":"error"}`, w.Body.String())
}

// ---- auth ----

func TestRegister_Success(t *testing.T) {
	d := newDeps()
	d.users.createFn = func(_ context.Context, name, email, hash string) (*storage.User, error) {
		assert.Equal(t, "Ana", name)
		assert.NoError(t, auth.CheckPassword(hash, "longenough"))
		return &storage.User{ID: testUserID, Name: name, Email: email}, nil
	}

	w := serve(t, d.router(), http.MethodPost, "/api/auth/register",
		`{"name":" Ana ","email":"ana@example.com","password":"longenough"}`, false)

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data struct {
			User  map[string]string `json:"user"`
			Token string            `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, testUserID.String(), body.Data.User["id"])
	claims, err := testTokens.Verify(body.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
}

func TestRegister_Validation(t *testing.T) {
	w := serve(t, newDeps().router(), http.MethodPost, "/api/auth/register",
		`{"name":"","email":"nope","password":"short"}`, false)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeErr(t, w)
	fields := make([]string, 0, len(body.Errors))
	for _, fe := range body.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"name", "email", "password"}, fields)
	assert.Equal(t, "name is required", body.Message)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	d := newDeps()
	d.users.createFn = func(context.Context, string, string, string) (*storage.User, error) {
		return nil, fmt.Errorf("creating user: %w", storage.ErrConflict)
	}

	w := serve(t, d.router(), http.MethodPost, "/api/auth/register",
		`{"name":"Ana","email":"ana@example.com","password":"longenough"}`, false)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	d := newDeps()
	d.users.byEmailFn = func(_ context.Context, email string) (*storage.User, error) {
		if email != "ana@example.com" {
			return nil, nil
		}
		return &storage.User{ID: testUserID, Name: "Ana", Email: email, PasswordHash: hash}, nil
	}
	router := d.router()

	cases := map[string]struct {
		body string
		want int
	}{
		"ok":             {`{"email":"ana@example.com","password":"correct horse"}`, http.StatusOK},
		"wrong password": {`{"email":"ana@example.com","password":"battery staple"}`, http.StatusUnauthorized},
		"unknown user":   {`{"email":"bob@example.com","password":"correct horse"}`, http.StatusUnauthorized},
		"missing fields": {`{"email":""}`, http.StatusUnprocessableEntity},
		"bad json":       {`{`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := serve(t, router, http.MethodPost, "/api/auth/login", tc.body, false)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestMe(t *testing.T) {
	d := newDeps()
	d.users.byIDFn = func(_ context.Context, id uuid.UUID) (*storage.User, error) {
		return &storage.User{ID: id, Name: "Ana", Email: "ana@example.com"}, nil
	}

	w := serve(t, d.router(), http.MethodGet, "/api/auth/me", "", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testUserID.String())
}

// ---- bearer auth ----

func TestTrips_RequireToken(t *testing.T) {
	router := newDeps().router()

	w := serve(t, router, http.MethodGet, "/api/trips", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, decodeErr(t, rec).Message)
}

// ---- trips ----

func TestListTrips_ScopedToUser(t *testing.T) {
	d := newDeps()
	d.trips.seed(testUserID, lisbon())
	d.trips.seed(uuid.New(), itinerary.Trip{ID: "someone-else", Name: "Oslo"})

	w := serve(t, d.router(), http.MethodGet, "/api/trips", "", true)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeTrip(t, w)
	require.Len(t, body.Data.Trips, 1)
	assert.Equal(t, "trip-1", body.Data.Trips[0].ID)
}

func TestListTrips_DBError(t *testing.T) {
	d := newDeps()
	d.trips.err = fmt.Errorf("db down")

	w := serve(t, d.router(), http.MethodGet, "/api/trips", "", true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetTrip_OtherUsersTripIsNotFound(t *testing.T) {
	d := newDeps()
	d.trips.seed(uuid.New(), lisbon())

	w := serve(t, d.router(), http.MethodGet, "/api/trips/trip-1", "", true)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTrip(t *testing.T) {
	d := newDeps()

	w := serve(t, d.router(), http.MethodPost, "/api/trips",
		`{"name":"Lisbon","destination":"Lisbon","startDate":"2025-06-01","endDate":"2025-06-03","travelers":2}`, true)

	require.Equal(t, http.StatusCreated, w.Code)
	trip := decodeTrip(t, w).Data.Trip
	assert.NotEmpty(t, trip.ID)
	assert.Equal(t, 3, itinerary.DayCount(trip))
	assert.NotNil(t, trip.Favorites)
}

func TestCreateTrip_Validation(t *testing.T) {
	w := serve(t, newDeps().router(), http.MethodPost, "/api/trips",
		`{"name":"Lisbon","startDate":"2025-06-03","endDate":"2025-06-01"}`, true)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeErr(t, w)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "endDate", body.Errors[0].Field)
}

func TestUpdateTrip_KeepsFavorites(t *testing.T) {
	d := newDeps()
	trip := lisbon()
	trip.Favorites = []itinerary.Place{{ID: "p1", Name: "Tram 28"}}
	d.trips.seed(testUserID, trip)

	w := serve(t, d.router(), http.MethodPut, "/api/trips/trip-1", `{"name":"Porto","travelers":0}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeTrip(t, w).Data.Trip
	assert.Equal(t, "Porto", got.Name)
	assert.Equal(t, 1, got.Travelers)
	assert.Len(t, got.Favorites, 1)
}

func TestDeleteTrip(t *testing.T) {
	d := newDeps()
	d.trips.seed(testUserID, lisbon())
	router := d.router()

	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodDelete, "/api/trips/trip-1", "", true).Code)
	assert.Equal(t, http.StatusNotFound, serve(t, router, http.MethodDelete, "/api/trips/trip-1", "", true).Code)
}

// ---- favorites ----

func TestAddFavorite_NewThenDuplicate(t *testing.T) {
	d := newDeps()
	d.trips.seed(testUserID, lisbon())
	router := d.router()

	w := serve(t, router, http.MethodPost, "/api/trips/trip-1/favorites", `{"id":"p1","name":"Tram 28"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decodeTrip(t, w).Data.Trip.Favorites, 1)

	w = serve(t, router, http.MethodPost, "/api/trips/trip-1/favorites", `{"id":"p1","name":"Renamed"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	favs := decodeTrip(t, w).Data.Trip.Favorites
	require.Len(t, favs, 1)
	assert.Equal(t, "Tram 28", favs[0].Name, "duplicate add leaves the trip unchanged")
}

func TestAddFavorite_Validation(t *testing.T) {
	d := newDeps()
	d.trips.seed(testUserID, lisbon())

	w := serve(t, d.router(), http.MethodPost, "/api/trips/trip-1/favorites", `{"id":"p1","assignedDay":0}`, true)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Len(t, decodeErr(t, w).Errors, 2)
}

func TestAddFavorite_TripNotFound(t *testing.T) {
	w := serve(t, newDeps().router(), http.MethodPost, "/api/trips/nope/favorites", `{"id":"p1","name":"x"}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveFavorite_MissingIsNoop(t *testing.T) {
	d := newDeps()
	trip := lisbon()
	trip.Favorites = []itinerary.Place{{ID: "p1", Name: "Tram 28"}}
	d.trips.seed(testUserID, trip)
	router := d.router()

	w := serve(t, router, http.MethodDelete, "/api/trips/trip-1/favorites/ghost", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTrip(t, w).Data.Trip.Favorites, 1)

	w = serve(t, router, http.MethodDelete, "/api/trips/trip-1/favorites/p1", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeTrip(t, w).Data.Trip.Favorites)
}

func TestUpdateFavorite_NullClearsAbsentKeeps(t *testing.T) {
	d := newDeps()
	day, at := 2, "09:30"
	trip := lisbon()
	trip.Favorites = []itinerary.Place{{ID: "p1", Name: "Tram 28", AssignedDay: &day, AssignedTime: &at}}
	d.trips.seed(testUserID, trip)

	w := serve(t, d.router(), http.MethodPatch, "/api/trips/trip-1/favorites/p1", `{"assignedDay":null}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	fav := decodeTrip(t, w).Data.Trip.Favorites[0]
	assert.Nil(t, fav.AssignedDay)
	require.NotNil(t, fav.AssignedTime)
	assert.Equal(t, "09:30", *fav.AssignedTime)
}

func TestUpdateFavorite_MissingIsNoop(t *testing.T) {
	d := newDeps()
	trip := lisbon()
	trip.Favorites = []itinerary.Place{{ID: "p1", Name: "Tram 28"}}
	d.trips.seed(testUserID, trip)

	w := serve(t, d.router(), http.MethodPatch, "/api/trips/trip-1/favorites/ghost", `{"assignedDay":1}`, true)

	require.Equal(t, http.StatusOK, w.Code)
	favs := decodeTrip(t, w).Data.Trip.Favorites
	require.Len(t, favs, 1)
	assert.Equal(t, "p1", favs[0].ID)
	assert.Nil(t, favs[0].AssignedDay)
}

func TestUpdateFavorite_Errors(t *testing.T) {
	d := newDeps()
	trip := lisbon()
	trip.Favorites = []itinerary.Place{{ID: "p1", Name: "Tram 28"}}
	d.trips.seed(testUserID, trip)
	router := d.router()

	cases := map[string]struct {
		path string
		body string
		want int
	}{
		"bad time":         {"/api/trips/trip-1/favorites/p1", `{"assignedTime":"9am"}`, http.StatusUnprocessableEntity},
		"missing trip":     {"/api/trips/nope/favorites/p1", `{"assignedDay":1}`, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := serve(t, router, http.MethodPatch, tc.path, tc.body, true)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

// ---- places ----

func TestGeocode_PassesThrough(t *testing.T) {
	d := newDeps()
	d.places.geocodeFn = func(_ context.Context, q places.GeocodeQuery) (json.RawMessage, error) {
		assert.Equal(t, places.GeocodeQuery{Text: "lis", Type: "city", Limit: 3}, q)
		return json.RawMessage(`{"type":"FeatureCollection","features":[]}`), nil
	}

	w := serve(t, d.router(), http.MethodGet, "/api/places/geocode?text=lis&limit=3", "", false)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, w.Body.String())
}

func TestGeocode_Errors(t *testing.T) {
	d := newDeps()
	d.places.geocodeFn = func(context.Context, places.GeocodeQuery) (json.RawMessage, error) {
		return nil, fmt.Errorf("provider down")
	}
	router := d.router()

	assert.Equal(t, http.StatusBadRequest, serve(t, router, http.MethodGet, "/api/places/geocode?text=+", "", false).Code)
	assert.Equal(t, http.StatusBadGateway, serve(t, router, http.MethodGet, "/api/places/geocode?text=lis", "", false).Code)
}

func TestImage(t *testing.T) {
	d := newDeps()
	d.places.imageFn = func(_ context.Context, query string, page int) (string, error) {
		switch query {
		case "lisbon":
			assert.Equal(t, 2, page)
			return "https://img.example.com/lisbon.jpg", nil
		case "nowhere":
			return "", nil
		}
		return "", fmt.Errorf("provider down")
	}
	router := d.router()

	w := serve(t, router, http.MethodGet, "/api/places/image?query=lisbon&page=2", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"imageUrl":"https://img.example.com/lisbon.jpg"}}`, w.Body.String())

	w = serve(t, router, http.MethodGet, "/api/places/image?query=nowhere", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = serve(t, router, http.MethodGet, "/api/places/image?query=boom", "", false)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// ---- middleware ----

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/trips/trip-1/favorites/p1", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w := httptest.NewRecorder()

	newDeps().router().ServeHTTP(w, req)

	assert.True(t, w.Code == http.StatusNoContent || w.Code == http.StatusOK, "got %d", w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := newDeps()
	router := api.NewRouter(api.NewHandlers(d.users, d.trips, d.places, testTokens, log),
		testTokens, d.db, d.redis, api.RouterConfig{RateLimitPerMinute: 2}, log)

	for range 2 {
		assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/api/health", "", false).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(t, router, http.MethodGet, "/api/health", "", false).Code)
}
