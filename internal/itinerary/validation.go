package itinerary

import (
	"fmt"
	"strings"
	"time"
)

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects per-field problems. It is reported inline by forms
// and returned as a 422 body by the server; it is never a store error.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

func (v ValidationError) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ParseDate parses an ISO date, accepting either "2006-01-02" or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ValidTime reports whether s is a zero-padded 24h "HH:MM" time.
func ValidTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ValidateTripDetails checks the create/update trip form.
//   - name is required (whitespace-only rejected)
//   - dates, when given, are ISO dates and end is not before start
//   - travelers is at least 1 when provided
func ValidateTripDetails(d TripDetails) error {
	var errs ValidationError
	if strings.TrimSpace(d.Name) == "" {
		errs.add("name", "name is required")
	}

	var start, end time.Time
	var startOK, endOK bool
	if d.StartDate != "" {
		t, err := ParseDate(d.StartDate)
		if err != nil {
			errs.add("startDate", "startDate must be an ISO date (YYYY-MM-DD)")
		} else {
			start, startOK = t, true
		}
	}
	if d.EndDate != "" {
		t, err := ParseDate(d.EndDate)
		if err != nil {
			errs.add("endDate", "endDate must be an ISO date (YYYY-MM-DD)")
		} else {
			end, endOK = t, true
		}
	}
	if startOK && endOK && end.Before(start) {
		errs.add("endDate", "endDate cannot be before startDate")
	}
	if d.Travelers < 0 {
		errs.add("travelers", "travelers must be at least 1")
	}
	return errs.orNil()
}

// ValidatePlace checks a place before it is added to a trip.
func ValidatePlace(p Place) error {
	var errs ValidationError
	if strings.TrimSpace(p.ID) == "" {
		errs.add("id", "id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		errs.add("name", "name is required")
	}
	validateAssignment(&errs, p.AssignedDay, p.AssignedTime)
	return errs.orNil()
}

// Validate checks the assignment fields of the update.
func (u PlaceUpdate) Validate() error {
	var errs ValidationError
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs.add("name", "name cannot be empty")
	}
	validateAssignment(&errs, u.AssignedDay.Value(), u.AssignedTime.Value())
	return errs.orNil()
}

func validateAssignment(errs *ValidationError, day *int, hhmm *string) {
	if day != nil && *day < 1 {
		errs.add("assignedDay", "assignedDay must be 1 or greater")
	}
	if hhmm != nil && !ValidTime(*hhmm) {
		errs.add("assignedTime", "assignedTime must be HH:MM")
	}
}
