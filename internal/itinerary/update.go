package itinerary

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a tri-state optional value: absent, set to a value, or set to null.
// The zero Field is absent. It marshals as JSON null when cleared and is
// omitted entirely (with the omitzero tag option) when absent.
type Field[T any] struct {
	set bool
	val *T
}

// Set returns a Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, val: &v}
}

// Clear returns a Field that explicitly clears the value.
func Clear[T any]() Field[T] {
	return Field[T]{set: true}
}

// SetPtr returns Set(*v), or Clear when v is nil.
func SetPtr[T any](v *T) Field[T] {
	if v == nil {
		return Clear[T]()
	}
	return Set(*v)
}

// IsSet reports whether the field was provided at all.
func (f Field[T]) IsSet() bool { return f.set }

// IsZero reports whether the field is absent. Used by encoding/json's omitzero.
func (f Field[T]) IsZero() bool { return !f.set }

// Value returns the held value, nil when cleared or absent.
func (f Field[T]) Value() *T {
	if f.val == nil {
		return nil
	}
	v := *f.val
	return &v
}

// MarshalJSON implements json.Marshaler.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.val == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.val)
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked for keys that are
// present, so a decoded Field is always set; null clears it.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.val = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding optional field: %w", err)
	}
	f.val = &v
	return nil
}

// PlaceUpdate is a partial update of a favorite. Nil pointers and absent
// fields leave the current value untouched.
type PlaceUpdate struct {
	Name     *string  `json:"name,omitempty"`
	Location *string  `json:"location,omitempty"`
	City     *string  `json:"city,omitempty"`
	Country  *string  `json:"country,omitempty"`
	Category *string  `json:"category,omitempty"`
	Vibe     *string  `json:"vibe,omitempty"`
	ImageURL *string  `json:"imageUrl,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
	Address  *string  `json:"address,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Website  *string  `json:"website,omitempty"`

	AssignedDay  Field[int]    `json:"assignedDay,omitzero"`
	AssignedTime Field[string] `json:"assignedTime,omitzero"`
}

// AssignDay builds an update that moves a place to day, or back to the
// unscheduled pool when day is nil.
func AssignDay(day *int) PlaceUpdate {
	return PlaceUpdate{AssignedDay: SetPtr(day)}
}

// AssignTime builds an update that sets or clears the time slot.
func AssignTime(hhmm *string) PlaceUpdate {
	return PlaceUpdate{AssignedTime: SetPtr(hhmm)}
}

// Empty reports whether the update changes nothing.
func (u PlaceUpdate) Empty() bool {
	return u.Name == nil && u.Location == nil && u.City == nil && u.Country == nil &&
		u.Category == nil && u.Vibe == nil && u.ImageURL == nil && u.Rating == nil &&
		u.Distance == nil && u.Address == nil && u.Phone == nil && u.Website == nil &&
		!u.AssignedDay.IsSet() && !u.AssignedTime.IsSet()
}

// Apply returns p with the update merged in.
func (u PlaceUpdate) Apply(p Place) Place {
	p = p.Clone()
	setString(&p.Name, u.Name)
	setString(&p.Location, u.Location)
	setString(&p.City, u.City)
	setString(&p.Country, u.Country)
	setString(&p.Category, u.Category)
	setString(&p.Vibe, u.Vibe)
	setString(&p.ImageURL, u.ImageURL)
	setString(&p.Address, u.Address)
	setString(&p.Phone, u.Phone)
	setString(&p.Website, u.Website)
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.Distance != nil {
		p.Distance = *u.Distance
	}
	if u.AssignedDay.IsSet() {
		p.AssignedDay = u.AssignedDay.Value()
	}
	if u.AssignedTime.IsSet() {
		p.AssignedTime = u.AssignedTime.Value()
	}
	return p
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
