package itinerary

import (
	"strings"
	"unicode"
)

// LocationsSummary lists the distinct "City, Country" strings of favorites in
// first-seen order. Explicit City/Country fields win; otherwise the last two
// comma-separated segments of Location are taken, then digits are stripped and
// segments of one character or less are dropped, so "12 Rue X, 75001 Paris,
// France" yields "Paris, France" and "Rue X, Paris, 75001" yields "Paris".
// Duplicates are detected case-insensitively.
func LocationsSummary(favorites []Place) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, p := range favorites {
		loc := placeLocation(p)
		if loc == "" {
			continue
		}
		key := strings.ToLower(loc)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, loc)
	}
	return out
}

func placeLocation(p Place) string {
	city := strings.TrimSpace(p.City)
	country := strings.TrimSpace(p.Country)
	if city != "" || country != "" {
		return joinNonEmpty(city, country)
	}

	raw := strings.Split(p.Location, ",")
	if len(raw) > 2 {
		raw = raw[len(raw)-2:]
	}
	var segments []string
	for _, seg := range raw {
		seg = strings.TrimSpace(stripDigits(seg))
		if len([]rune(seg)) > 1 {
			segments = append(segments, seg)
		}
	}
	return joinNonEmpty(segments...)
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
