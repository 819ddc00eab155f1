package itinerary_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

func TestAddFavorite_Idempotent(t *testing.T) {
	p := itinerary.Place{ID: "eiffel", Name: "Eiffel Tower"}

	favs, added := itinerary.AddFavorite(nil, p)
	require.True(t, added)

	favs, added = itinerary.AddFavorite(favs, p)

	assert.False(t, added)
	assert.Len(t, favs, 1)
}

func TestAddFavorite_DoesNotAliasInput(t *testing.T) {
	orig := make([]itinerary.Place, 1, 4)
	orig[0] = itinerary.Place{ID: "a"}

	out, _ := itinerary.AddFavorite(orig, itinerary.Place{ID: "b"})
	out[0].Name = "changed"

	assert.Empty(t, orig[0].Name)
}

func TestRemoveFavorite_MissingIsNoop(t *testing.T) {
	favs := []itinerary.Place{{ID: "a"}, {ID: "b"}}

	out, removed := itinerary.RemoveFavorite(favs, "zzz")

	assert.False(t, removed)
	assert.Equal(t, favs, out)
}

func TestRemoveFavorite(t *testing.T) {
	favs := []itinerary.Place{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	out, removed := itinerary.RemoveFavorite(favs, "b")

	assert.True(t, removed)
	assert.Equal(t, []string{"a", "c"}, ids(out))
	assert.Len(t, favs, 3)
}

func TestUpdateFavorite_AssignAndUnassign(t *testing.T) {
	favs := []itinerary.Place{{ID: "a", Name: "Museum"}}

	out, ok := itinerary.UpdateFavorite(favs, "a", itinerary.AssignDay(day(2)))
	require.True(t, ok)
	require.NotNil(t, out[0].AssignedDay)
	assert.Equal(t, 2, *out[0].AssignedDay)
	assert.Nil(t, favs[0].AssignedDay, "input must not change")

	out, ok = itinerary.UpdateFavorite(out, "a", itinerary.AssignDay(nil))
	require.True(t, ok)
	assert.Nil(t, out[0].AssignedDay)
	assert.Equal(t, "Museum", out[0].Name)
}

func TestUpdateFavorite_MissingIsNoop(t *testing.T) {
	favs := []itinerary.Place{{ID: "a"}}

	_, ok := itinerary.UpdateFavorite(favs, "b", itinerary.AssignTime(at("10:00")))

	assert.False(t, ok)
}

func TestPlaceUpdate_Apply_LeavesAbsentFields(t *testing.T) {
	name := "Louvre"
	p := itinerary.Place{ID: "a", Name: "Old", City: "Paris", AssignedDay: day(1), AssignedTime: at("09:00")}

	got := itinerary.PlaceUpdate{Name: &name}.Apply(p)

	assert.Equal(t, "Louvre", got.Name)
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, 1, *got.AssignedDay)
	assert.Equal(t, "09:00", *got.AssignedTime)
}

func TestPlaceUpdate_JSON_NullVersusAbsent(t *testing.T) {
	var cleared itinerary.PlaceUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"assignedDay":null}`), &cleared))
	assert.True(t, cleared.AssignedDay.IsSet())
	assert.Nil(t, cleared.AssignedDay.Value())
	assert.False(t, cleared.AssignedTime.IsSet())

	var set itinerary.PlaceUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"assignedDay":3,"assignedTime":"14:15"}`), &set))
	assert.Equal(t, 3, *set.AssignedDay.Value())
	assert.Equal(t, "14:15", *set.AssignedTime.Value())

	var empty itinerary.PlaceUpdate
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.Empty())
}

func TestPlaceUpdate_JSON_Marshal(t *testing.T) {
	b, err := json.Marshal(itinerary.AssignDay(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignedDay":null}`, string(b))

	b, err = json.Marshal(itinerary.AssignTime(at("08:30")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignedTime":"08:30"}`, string(b))
}

func TestPlaceUpdate_JSON_BadValue(t *testing.T) {
	var u itinerary.PlaceUpdate
	err := json.Unmarshal([]byte(`{"assignedDay":"monday"}`), &u)
	require.Error(t, err)
}

func TestDefaultTripDetails(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC)

	d := itinerary.DefaultTripDetails(itinerary.Place{ID: "a", City: "Rome", Vibe: "foodie"}, now)

	assert.Equal(t, "My Trip", d.Name)
	assert.Equal(t, "2025-06-01", d.StartDate)
	assert.Equal(t, "2025-06-01", d.EndDate)
	assert.Equal(t, "foodie", d.Vibe)
	assert.Equal(t, "Rome", d.Destination)
	assert.Equal(t, 1, d.Travelers)

	d = itinerary.DefaultTripDetails(itinerary.Place{ID: "b"}, now)
	assert.Equal(t, itinerary.DefaultVibe, d.Vibe)
}

func TestTripClone_IsDeep(t *testing.T) {
	trip := itinerary.Trip{ID: "t", Favorites: []itinerary.Place{{ID: "a", AssignedDay: day(1)}}}

	c := trip.Clone()
	*c.Favorites[0].AssignedDay = 5
	c.Favorites[0].Name = "x"

	assert.Equal(t, 1, *trip.Favorites[0].AssignedDay)
	assert.Empty(t, trip.Favorites[0].Name)
}
