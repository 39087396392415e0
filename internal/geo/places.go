// Package geo proxies the Google Maps Places and Geocoding APIs so the
// browser never sees the API key. Responses are passed through as raw
// JSON; booking works fine when the provider is unreachable.
package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultAutocompleteURL = "https://maps.googleapis.com/maps/api/place/autocomplete/json"
	defaultGeocodeURL      = "https://maps.googleapis.com/maps/api/geocode/json"

	// MinAutocompleteInput is the shortest input worth forwarding.
	// Anything shorter gets an empty prediction list without an
	// upstream call.
	MinAutocompleteInput = 3
)

// EmptyPredictions is returned for too-short autocomplete input.
var EmptyPredictions = []byte(`{"predictions":[]}`)

// Client calls the mapping provider with a server-side key.
type Client struct {
	apiKey          string
	autocompleteURL string
	geocodeURL      string
	client          *http.Client
}

// NewClient creates a mapping client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:          apiKey,
		autocompleteURL: defaultAutocompleteURL,
		geocodeURL:      defaultGeocodeURL,
		client:          &http.Client{Timeout: 10 * time.Second},
	}
}

// Autocomplete forwards an address prefix to the Places API, restricted
// to German addresses to match the service area.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]byte, error) {
	if len(input) < MinAutocompleteInput {
		return EmptyPredictions, nil
	}

	q := url.Values{}
	q.Set("input", input)
	q.Set("key", c.apiKey)
	q.Set("language", "de")
	q.Set("components", "country:de")

	return c.get(ctx, c.autocompleteURL+"?"+q.Encode())
}

// ReverseGeocode resolves coordinates to an address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng string) ([]byte, error) {
	q := url.Values{}
	q.Set("latlng", lat+","+lng)
	q.Set("key", c.apiKey)
	q.Set("language", "de")

	return c.get(ctx, c.geocodeURL+"?"+q.Encode())
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create maps request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call maps provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("maps provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read maps response: %w", err)
	}
	return body, nil
}
