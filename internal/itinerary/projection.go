package itinerary

import (
	"math"
	"sort"
	"strconv"
)

// placeholderDays is the window shown for trips without usable dates.
// It looks like a fallback for incomplete trips rather than a feature; kept
// for compatibility with existing clients.
const placeholderDays = 3

// DayCount returns the number of days in the trip's date range, inclusive.
// Trips missing either date (or carrying unparseable dates) get the 3-day placeholder.
func DayCount(t Trip) int {
	if t.StartDate == "" || t.EndDate == "" {
		return placeholderDays
	}
	start, err := ParseDate(t.StartDate)
	if err != nil {
		return placeholderDays
	}
	end, err := ParseDate(t.EndDate)
	if err != nil {
		return placeholderDays
	}
	days := int(math.Floor(math.Abs(end.Sub(start).Hours())/24)) + 1
	return max(days, 1)
}

// Days returns the day numbers 1..DayCount(t).
func Days(t Trip) []int {
	n := DayCount(t)
	days := make([]int, n)
	for i := range days {
		days[i] = i + 1
	}
	return days
}

// DayLabel formats day (1-based) as a short date like "Mon, Jun 2" counted from the
// trip's start date, or "Day N" when the trip has no usable start date.
func DayLabel(t Trip, day int) string {
	if t.StartDate != "" {
		if start, err := ParseDate(t.StartDate); err == nil {
			return start.AddDate(0, 0, day-1).Format("Mon, Jan 2")
		}
	}
	return "Day " + strconv.Itoa(day)
}

// UnscheduledPlaces returns the favorites without an assigned day, in insertion order.
func UnscheduledPlaces(t Trip) []Place {
	out := []Place{}
	for _, p := range t.Favorites {
		if p.AssignedDay == nil {
			out = append(out, p.Clone())
		}
	}
	return out
}

// DayPlaces returns the favorites assigned to day ordered by time slot.
// "HH:MM" strings compare chronologically; untimed places follow all timed ones
// and keep their insertion order.
func DayPlaces(t Trip, day int) []Place {
	out := []Place{}
	for _, p := range t.Favorites {
		if p.AssignedDay != nil && *p.AssignedDay == day {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AssignedTime, out[j].AssignedTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out
}

// DaySchedule is one column of the itinerary grid.
type DaySchedule struct {
	Day    int     `json:"day"`
	Label  string  `json:"label"`
	Places []Place `json:"places"`
}

// Itinerary is the full derived view of a trip.
type Itinerary struct {
	TripID      string        `json:"tripId"`
	Days        []DaySchedule `json:"days"`
	Unscheduled []Place       `json:"unscheduled"`
	Locations   []string      `json:"locations"`
}

// Build computes every projection for t in one pass over its days.
// Places assigned to a day outside the trip's range appear in neither the
// schedule nor the unscheduled pool, matching DayPlaces/UnscheduledPlaces.
func Build(t Trip) Itinerary {
	days := Days(t)
	it := Itinerary{
		TripID:      t.ID,
		Days:        make([]DaySchedule, 0, len(days)),
		Unscheduled: UnscheduledPlaces(t),
		Locations:   LocationsSummary(t.Favorites),
	}
	for _, d := range days {
		it.Days = append(it.Days, DaySchedule{
			Day:    d,
			Label:  DayLabel(t, d),
			Places: DayPlaces(t, d),
		})
	}
	return it
}
