package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	httpTimeout  = 10 * time.Second
	imageTimeout = 8 * time.Second
)

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, rawURL string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", redact(rawURL), err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", redact(rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{URL: redact(rawURL), Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", redact(rawURL), err)
	}
	return nil
}

// ProviderError is a non-200 answer from an upstream provider.
type ProviderError struct {
	URL    string
	Status int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("GET %s returned status %d", e.URL, e.Status)
}

// redact strips the query string so API keys stay out of logs.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// ---- Geoapify ----

// GeocodeClient queries the Geoapify autocomplete API.
type GeocodeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const geoapifyDefaultURL = "https://api.geoapify.com"

// NewGeocodeClient constructs a GeocodeClient. An empty baseURL uses the public API.
func NewGeocodeClient(baseURL, apiKey string) *GeocodeClient {
	if baseURL == "" {
		baseURL = geoapifyDefaultURL
	}
	return &GeocodeClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// Geocode returns the provider's GeoJSON FeatureCollection for q unchanged.
func (c *GeocodeClient) Geocode(ctx context.Context, q GeocodeQuery) (json.RawMessage, error) {
	v := url.Values{
		"text":   {q.Text},
		"limit":  {strconv.Itoa(q.Limit)},
		"apiKey": {c.apiKey},
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	endpoint := c.baseURL + "/v1/geocode/autocomplete?" + v.Encode()

	var raw json.RawMessage
	if err := doGet(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("geoapify geocode for %q: %w", q.Text, err)
	}
	return raw, nil
}

// ---- Unsplash ----

// ImageClient searches Unsplash for a representative photo.
type ImageClient struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

const unsplashDefaultURL = "https://api.unsplash.com"

// NewImageClient constructs an ImageClient with the shorter image timeout.
// An empty baseURL uses the public API.
func NewImageClient(baseURL, accessKey string) *ImageClient {
	if baseURL == "" {
		baseURL = unsplashDefaultURL
	}
	return &ImageClient{
		accessKey: accessKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: imageTimeout},
	}
}

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns the URL of the first photo matching query on page, or "" when
// there are no results.
func (c *ImageClient) Search(ctx context.Context, query string, page int) (string, error) {
	v := url.Values{
		"query":    {query},
		"page":     {strconv.Itoa(page)},
		"per_page": {"1"},
	}
	endpoint := c.baseURL + "/search/photos?" + v.Encode()
	header := http.Header{"Authorization": {"Client-ID " + c.accessKey}}

	var raw unsplashSearchResponse
	if err := doGet(ctx, c.client, endpoint, header, &raw); err != nil {
		return "", fmt.Errorf("unsplash search for %q: %w", query, err)
	}
	if len(raw.Results) == 0 {
		return "", nil
	}
	u := raw.Results[0].URLs
	if u.Regular != "" {
		return u.Regular, nil
	}
	return u.Small, nil
}
