package itinerary

// The helpers below never modify the slice they are given; they return a fresh
// slice when something changed and the original slice otherwise.

// IndexOf returns the position of the place with the given id, or -1.
func IndexOf(favorites []Place, id string) int {
	for i, p := range favorites {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether favorites holds a place with the given id.
func Contains(favorites []Place, id string) bool {
	return IndexOf(favorites, id) >= 0
}

// AddFavorite appends place unless a place with the same id is already present.
// The boolean is false when the call was a no-op.
func AddFavorite(favorites []Place, place Place) ([]Place, bool) {
	if Contains(favorites, place.ID) {
		return favorites, false
	}
	out := make([]Place, 0, len(favorites)+1)
	out = append(out, favorites...)
	return append(out, place.Clone()), true
}

// RemoveFavorite drops the place with the given id.
func RemoveFavorite(favorites []Place, id string) ([]Place, bool) {
	i := IndexOf(favorites, id)
	if i < 0 {
		return favorites, false
	}
	out := make([]Place, 0, len(favorites)-1)
	out = append(out, favorites[:i]...)
	return append(out, favorites[i+1:]...), true
}

// UpdateFavorite merges upd into the place with the given id.
func UpdateFavorite(favorites []Place, id string, upd PlaceUpdate) ([]Place, bool) {
	i := IndexOf(favorites, id)
	if i < 0 {
		return favorites, false
	}
	out := make([]Place, len(favorites))
	copy(out, favorites)
	out[i] = upd.Apply(out[i])
	return out, true
}
