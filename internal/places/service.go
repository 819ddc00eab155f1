// Package places proxies the geocoding and image providers used by destination
// search, caching their answers in Redis.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// DefaultGeocodeLimit is used when the caller gives no limit.
	DefaultGeocodeLimit = 5
	// MaxGeocodeLimit caps the number of suggestions per query.
	MaxGeocodeLimit = 20
)

// GeocodeQuery is a normalized geocode request.
type GeocodeQuery struct {
	Text  string
	Type  string
	Limit int
}

// Normalize trims the text and clamps Limit into 1..MaxGeocodeLimit, using the
// default for zero or negative values.
func (q GeocodeQuery) Normalize() GeocodeQuery {
	q.Text = strings.TrimSpace(q.Text)
	q.Type = strings.TrimSpace(q.Type)
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultGeocodeLimit
	case q.Limit > MaxGeocodeLimit:
		q.Limit = MaxGeocodeLimit
	}
	return q
}

func (q GeocodeQuery) cacheKey() string {
	return q.Type + "|" + strconv.Itoa(q.Limit) + "|" + q.Text
}

// geocoder is satisfied by GeocodeClient.
type geocoder interface {
	Geocode(ctx context.Context, q GeocodeQuery) (json.RawMessage, error)
}

// imageSearcher is satisfied by ImageClient.
type imageSearcher interface {
	Search(ctx context.Context, query string, page int) (string, error)
}

// Cache is the JSON cache the service reads through.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// Service answers geocode and image lookups, consulting the cache first.
// Cache failures are logged and treated as misses.
type Service struct {
	geo      geocoder
	images   imageSearcher
	geoCache Cache
	imgCache Cache
	log      *slog.Logger
}

// NewService constructs a Service. Either cache may be nil to disable caching.
func NewService(geo geocoder, images imageSearcher, geoCache, imgCache Cache, log *slog.Logger) *Service {
	return &Service{geo: geo, images: images, geoCache: geoCache, imgCache: imgCache, log: log}
}

// Geocode returns the provider's FeatureCollection for q.
func (s *Service) Geocode(ctx context.Context, q GeocodeQuery) (json.RawMessage, error) {
	q = q.Normalize()
	key := q.cacheKey()

	if s.geoCache != nil {
		var cached json.RawMessage
		found, err := s.geoCache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("geocode cache get failed", "text", q.Text, "err", err)
		} else if found {
			s.log.Debug("geocode cache hit", "text", q.Text)
			return cached, nil
		}
	}

	raw, err := s.geo.Geocode(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", q.Text, err)
	}

	if s.geoCache != nil {
		if err := s.geoCache.Set(ctx, key, raw); err != nil {
			s.log.Warn("geocode cache set failed", "text", q.Text, "err", err)
		}
	}
	return raw, nil
}

type cachedImage struct {
	URL string `json:"url"`
}

// Image returns a photo URL for query, "" when the provider has none.
// Empty answers are cached too.
func (s *Service) Image(ctx context.Context, query string, page int) (string, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	key := strconv.Itoa(page) + "|" + query

	if s.imgCache != nil {
		var cached cachedImage
		found, err := s.imgCache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("image cache get failed", "query", query, "err", err)
		} else if found {
			return cached.URL, nil
		}
	}

	imageURL, err := s.images.Search(ctx, query, page)
	if err != nil {
		return "", fmt.Errorf("searching image for %q: %w", query, err)
	}

	if s.imgCache != nil {
		if err := s.imgCache.Set(ctx, key, cachedImage{URL: imageURL}); err != nil {
			s.log.Warn("image cache set failed", "query", query, "err", err)
		}
	}
	return imageURL, nil
}
