package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Nominatim queries an OpenStreetMap Nominatim search endpoint.
type Nominatim struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func (n *Nominatim) Lookup(ctx context.Context, name string) (Point, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return Point{}, ErrNotFound
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "us")
	endpoint := n.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Point{}, err
	}
	// the public instance rejects requests without an identifying agent
	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}
	resp, err := httpClient(n.Client).Do(req)
	if err != nil {
		return Point{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Point{}, &StatusError{Provider: "nominatim", Code: resp.StatusCode}
	}

	var places []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Point{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(places) == 0 {
		return Point{}, ErrNotFound
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("nominatim lat %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("nominatim lon %q: %w", places[0].Lon, err)
	}
	return Point{Lat: lat, Lon: lon}, nil
}
