package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travel-vibes/internal/backend"
	"github.com/neexbeast/travel-vibes/internal/itinerary"
	"github.com/neexbeast/travel-vibes/internal/planner"
	"github.com/neexbeast/travel-vibes/internal/store"
)

// TestRoundTrip_PlannerAgainstRouter drives the client core against the real
// router to check that both sides agree on the wire format.
func TestRoundTrip_PlannerAgainstRouter(t *testing.T) {
	srv := httptest.NewServer(newDeps().router())
	t.Cleanup(srv.Close)

	tok, err := testTokens.Issue(testUserID, "ana@example.com")
	require.NoError(t, err)
	client := backend.New(srv.URL+"/api", backend.StaticToken(tok))
	st := store.New()
	p := planner.New(client, st)
	ctx := context.Background()

	// No current trip: the first favorite creates one on the server.
	res := p.AddFavorite(ctx, itinerary.Place{ID: "p1", Name: "Tram 28", City: "Lisbon"})
	require.True(t, res.OK(), "add favorite: %v", res.Err)
	tripID := res.Value.ID
	assert.Equal(t, tripID, st.CurrentTripID())
	assert.Equal(t, itinerary.DefaultTripName, res.Value.Name)

	day := 2
	res = p.AssignPlaceToDay(ctx, "p1", &day)
	require.True(t, res.OK(), "assign day: %v", res.Err)

	at := "10:15"
	res = p.UpdatePlaceTime(ctx, "p1", &at)
	require.True(t, res.OK(), "update time: %v", res.Err)

	// Back to the pool: the time survives, the day is cleared.
	res = p.AssignPlaceToDay(ctx, "p1", nil)
	require.True(t, res.OK(), "unassign day: %v", res.Err)

	trip, ok := st.CurrentTrip()
	require.True(t, ok)
	require.Len(t, trip.Favorites, 1)
	assert.Nil(t, trip.Favorites[0].AssignedDay)
	require.NotNil(t, trip.Favorites[0].AssignedTime)
	assert.Equal(t, "10:15", *trip.Favorites[0].AssignedTime)
	assert.Equal(t, []string{"p1"}, placeIDs(itinerary.UnscheduledPlaces(trip)))

	loaded := p.LoadTrips(ctx)
	require.True(t, loaded.OK())
	assert.Len(t, loaded.Value, 1)

	del := p.DeleteTrip(ctx, tripID)
	require.True(t, del.OK())
	assert.Empty(t, st.Trips())
	assert.Empty(t, st.CurrentTripID())
}

func TestRoundTrip_UpdatingUnknownPlaceIsSilentNoop(t *testing.T) {
	srv := httptest.NewServer(newDeps().router())
	t.Cleanup(srv.Close)

	tok, err := testTokens.Issue(testUserID, "ana@example.com")
	require.NoError(t, err)
	st := store.New()
	p := planner.New(backend.New(srv.URL+"/api", backend.StaticToken(tok)), st)
	ctx := context.Background()

	require.True(t, p.AddFavorite(ctx, itinerary.Place{ID: "p1", Name: "Tram 28"}).OK())

	day := 1
	res := p.AssignPlaceToDay(ctx, "ghost", &day)
	require.True(t, res.OK(), "assign unknown place: %v", res.Err)
	at := "08:00"
	res = p.UpdatePlaceTime(ctx, "ghost", &at)
	require.True(t, res.OK(), "time on unknown place: %v", res.Err)
	res = p.RemoveFavorite(ctx, "ghost")
	require.True(t, res.OK(), "remove unknown place: %v", res.Err)

	assert.NoError(t, p.Status().Err)
	trip, ok := st.CurrentTrip()
	require.True(t, ok)
	require.Len(t, trip.Favorites, 1)
	assert.Equal(t, "p1", trip.Favorites[0].ID)
	assert.Nil(t, trip.Favorites[0].AssignedDay)
	assert.Nil(t, trip.Favorites[0].AssignedTime)
}

func TestRoundTrip_ValidationErrorsReachTheClient(t *testing.T) {
	srv := httptest.NewServer(newDeps().router())
	t.Cleanup(srv.Close)
	tok, err := testTokens.Issue(testUserID, "ana@example.com")
	require.NoError(t, err)
	client := backend.New(srv.URL+"/api", backend.StaticToken(tok))

	// Bypass client-side validation to see the server's answer.
	_, err = client.CreateTrip(context.Background(), itinerary.TripDetails{Name: " "})

	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "name", apiErr.Errors[0].Field)
	assert.Equal(t, "name is required", backend.UserMessage(err))
}

func TestRoundTrip_MissingTokenIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(newDeps().router())
	t.Cleanup(srv.Close)

	_, err := backend.New(srv.URL+"/api", nil).ListTrips(context.Background())

	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func placeIDs(ps []itinerary.Place) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
