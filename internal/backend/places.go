package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/travel-vibes/internal/itinerary"
)

// maxImageLookups caps concurrent image requests per search.
const maxImageLookups = 4

// Destination is a city suggestion returned by the geocode proxy.
type Destination struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Formatted string  `json:"formatted"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// Place converts the suggestion into a favoritable place tagged with vibe.
func (d Destination) Place(vibe string) itinerary.Place {
	return itinerary.Place{
		ID:       d.ID,
		Name:     d.Name,
		Location: d.Formatted,
		City:     d.City,
		Country:  d.Country,
		Category: "city",
		Vibe:     vibe,
		ImageURL: d.ImageURL,
	}
}

type geocodeResponse struct {
	Features []struct {
		Properties struct {
			PlaceID   string  `json:"place_id"`
			Name      string  `json:"name"`
			City      string  `json:"city"`
			Country   string  `json:"country"`
			Formatted string  `json:"formatted"`
			Lat       float64 `json:"lat"`
			Lon       float64 `json:"lon"`
		} `json:"properties"`
	} `json:"features"`
}

type imageData struct {
	ImageURL string `json:"imageUrl"`
}

type imageResponse struct {
	Success bool      `json:"success"`
	Data    imageData `json:"data"`
}

// GeocodeCities looks up cities matching text.
func (c *Client) GeocodeCities(ctx context.Context, text string, limit int) ([]Destination, error) {
	q := url.Values{"text": {text}, "type": {"city"}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var raw geocodeResponse
	if err := c.get(ctx, "/places/geocode?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", text, err)
	}

	out := make([]Destination, 0, len(raw.Features))
	for _, f := range raw.Features {
		p := f.Properties
		name := p.Name
		if name == "" {
			name = p.City
		}
		if name == "" {
			continue
		}
		id := p.PlaceID
		if id == "" {
			id = fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)
		}
		out = append(out, Destination{
			ID:        id,
			Name:      name,
			City:      firstNonEmpty(p.City, name),
			Country:   p.Country,
			Formatted: p.Formatted,
			Lat:       p.Lat,
			Lon:       p.Lon,
		})
	}
	return out, nil
}

// ImageURL returns a picture URL for query, or "" when the proxy found none.
// It uses the shorter image timeout.
func (c *Client) ImageURL(ctx context.Context, query string, page int) (string, error) {
	q := url.Values{"query": {query}}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	var raw imageResponse
	if err := c.do(ctx, c.images, http.MethodGet, "/places/image?"+q.Encode(), nil, &raw); err != nil {
		return "", fmt.Errorf("looking up image for %q: %w", query, err)
	}
	if !raw.Success {
		return "", nil
	}
	return raw.Data.ImageURL, nil
}

// SearchDestinations geocodes text and then fetches an image for every result in
// parallel. Image failures are logged and leave ImageURL empty.
func (c *Client) SearchDestinations(ctx context.Context, text string, limit int) ([]Destination, error) {
	dests, err := c.GeocodeCities(ctx, text, limit)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxImageLookups)
	for i := range dests {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("image lookup panicked", "recover", r)
					err = fmt.Errorf("image lookup panicked: %v", r)
				}
			}()
			query := joinQuery(dests[i].City, dests[i].Country)
			img, fetchErr := c.ImageURL(gCtx, query, 1)
			if fetchErr != nil {
				c.log.Warn("image lookup failed", "query", query, "err", fetchErr)
				return nil
			}
			dests[i].ImageURL = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("searching destinations for %q: %w", text, err)
	}
	return dests, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinQuery(city, country string) string {
	if country == "" {
		return city
	}
	return city + " " + country
}
