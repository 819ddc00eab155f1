package backend

import (
	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

// envelope is the {"data": ...} wrapper on every successful response.
type envelope[T any] struct {
	Data T `json:"data"`
}

// wireTrip accepts the trip ID as either "id" or "_id".
type wireTrip struct {
	itinerary.Trip
	MongoID string `json:"_id"`
}

func (w wireTrip) trip() itinerary.Trip {
	t := w.Trip
	if t.ID == "" {
		t.ID = w.MongoID
	}
	if t.Favorites == nil {
		t.Favorites = []itinerary.Place{}
	}
	return t
}

type tripData struct {
	Trip wireTrip `json:"trip"`
}

type tripsData struct {
	Trips []wireTrip `json:"trips"`
}

func (d tripsData) trips() []itinerary.Trip {
	out := make([]itinerary.Trip, len(d.Trips))
	for i, w := range d.Trips {
		out[i] = w.trip()
	}
	return out
}

// User is the account returned by login and register.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the result of a successful login or registration.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type wireUser struct {
	User
	MongoID string `json:"_id"`
}

type authData struct {
	User  wireUser `json:"user"`
	Token string   `json:"token"`
}

func (d authData) session() Session {
	u := d.User.User
	if u.ID == "" {
		u.ID = d.User.MongoID
	}
	return Session{User: u, Token: d.Token}
}
