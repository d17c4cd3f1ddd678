package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultMapboxURL = "https://api.mapbox.com/geocoding/v5/mapbox.places/"

// Mapbox queries the Mapbox forward geocoding API for US regions.
type Mapbox struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func (m *Mapbox) endpoint() string {
	base := strings.TrimSpace(m.BaseURL)
	if base == "" {
		return defaultMapboxURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (m *Mapbox) Lookup(ctx context.Context, name string) (Point, error) {
	token := strings.TrimSpace(m.Token)
	if token == "" {
		return Point{}, errors.New("mapbox token missing")
	}
	query := strings.TrimSpace(name)
	if query == "" {
		return Point{}, ErrNotFound
	}
	endpoint := fmt.Sprintf("%s%s.json?access_token=%s&limit=1&country=US&language=en&types=region",
		m.endpoint(), url.PathEscape(query), url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Point{}, err
	}
	resp, err := httpClient(m.Client).Do(req)
	if err != nil {
		return Point{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Point{}, &StatusError{Provider: "mapbox", Code: resp.StatusCode}
	}

	var data struct {
		Features []struct {
			Center []float64 `json:"center"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Point{}, fmt.Errorf("decode mapbox response: %w", err)
	}
	if len(data.Features) == 0 || len(data.Features[0].Center) < 2 {
		return Point{}, ErrNotFound
	}
	return Point{Lat: data.Features[0].Center[1], Lon: data.Features[0].Center[0]}, nil
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
