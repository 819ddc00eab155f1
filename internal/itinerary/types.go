// Package itinerary holds the trip and place types shared by the client core and the
// backend server, the favorites helpers that keep a trip's favorites free of duplicates,
// and the pure projections that turn a trip into a day-by-day schedule.
package itinerary

import "time"

const (
	// DefaultTripName names the trip created implicitly by the first favorite.
	DefaultTripName = "My Trip"
	// DefaultVibe tags the implicit trip when the place carries no vibe.
	DefaultVibe = "adventure"
	// DateLayout is the ISO calendar date format used for trip dates.
	DateLayout = "2006-01-02"
)

// Place is a favorited location attached to a trip.
// AssignedDay and AssignedTime are nil while the place sits in the unscheduled pool.
type Place struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location,omitempty"`
	City     string  `json:"city,omitempty"`
	Country  string  `json:"country,omitempty"`
	Category string  `json:"category,omitempty"`
	Vibe     string  `json:"vibe,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Distance float64 `json:"distance,omitempty"`

	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`

	AssignedDay  *int    `json:"assignedDay"`
	AssignedTime *string `json:"assignedTime"`
}

// Clone returns a copy of p that shares no pointers with it.
func (p Place) Clone() Place {
	if p.AssignedDay != nil {
		d := *p.AssignedDay
		p.AssignedDay = &d
	}
	if p.AssignedTime != nil {
		t := *p.AssignedTime
		p.AssignedTime = &t
	}
	return p
}

// Scheduled reports whether the place has been assigned to a day.
func (p Place) Scheduled() bool {
	return p.AssignedDay != nil
}

// Trip is a named travel plan owning an ordered list of favorites.
// StartDate and EndDate are "2006-01-02" strings; empty means unset.
type Trip struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	Vibe        string    `json:"vibe,omitempty"`
	Travelers   int       `json:"travelers"`
	Favorites   []Place   `json:"favorites"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Clone returns a deep copy of t.
func (t Trip) Clone() Trip {
	if t.Favorites != nil {
		favs := make([]Place, len(t.Favorites))
		for i, p := range t.Favorites {
			favs[i] = p.Clone()
		}
		t.Favorites = favs
	}
	return t
}

// Details returns the user-editable fields of t.
func (t Trip) Details() TripDetails {
	return TripDetails{
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Vibe:        t.Vibe,
		Travelers:   t.Travelers,
	}
}

// TripDetails is the form payload used to create or update a trip.
type TripDetails struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Vibe        string `json:"vibe,omitempty"`
	Travelers   int    `json:"travelers"`
}

// Apply copies d onto t, leaving ID, favorites and timestamps alone.
// A zero Travelers count is stored as 1.
func (d TripDetails) Apply(t Trip) Trip {
	t.Name = d.Name
	t.Destination = d.Destination
	t.StartDate = d.StartDate
	t.EndDate = d.EndDate
	t.Vibe = d.Vibe
	t.Travelers = d.Travelers
	if t.Travelers < 1 {
		t.Travelers = 1
	}
	return t
}

// DefaultTripDetails describes the trip created implicitly when place is favorited
// while no trip is selected: "My Trip", today as both start and end date.
func DefaultTripDetails(place Place, now time.Time) TripDetails {
	vibe := place.Vibe
	if vibe == "" {
		vibe = DefaultVibe
	}
	today := now.Format(DateLayout)
	return TripDetails{
		Name:        DefaultTripName,
		Destination: place.City,
		StartDate:   today,
		EndDate:     today,
		Vibe:        vibe,
		Travelers:   1,
	}
}
