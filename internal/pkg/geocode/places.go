package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/askdrhq/askdr/internal/pkg/env"
)

const defaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// ErrNotConfigured is returned when no Maps API key is present.
var ErrNotConfigured = errors.New("geocode: maps api key not configured")

// Place is one nearby-search result, trimmed to the fields the app shows.
type Place struct {
	Name             string   `json:"name"`
	Address          string   `json:"address"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	OpenNow          *bool    `json:"open_now,omitempty"`
	Location         LatLng   `json:"location"`
	PlaceID          string   `json:"place_id"`
	Types            []string `json:"types,omitempty"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NearbyQuery describes a places nearby search.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusM   float64
	Type      string
	Keyword   string
}

// Client proxies the Google Places nearby search API.
type Client struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from GOOGLE_MAPS_API_KEY.
func NewClientFromEnv() *Client {
	return &Client{
		APIKey:  strings.TrimSpace(env.GetEnv("GOOGLE_MAPS_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("GOOGLE_PLACES_BASE_URL", defaultPlacesBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type nearbyResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string   `json:"name"`
		Vicinity         string   `json:"vicinity"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		PlaceID          string   `json:"place_id"`
		Types            []string `json:"types"`
		Geometry         struct {
			Location LatLng `json:"location"`
		} `json:"geometry"`
		OpeningHours *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Nearby runs a nearby search and maps the raw results to Places.
func (c *Client) Nearby(ctx context.Context, q NearbyQuery) ([]Place, error) {
	if c.APIKey == "" {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", q.Latitude, q.Longitude))
	params.Set("radius", fmt.Sprintf("%.0f", q.RadiusM))
	params.Set("key", c.APIKey)
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/nearbysearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var parsed nearbyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("geocode: invalid response (%d): %w", resp.StatusCode, err)
	}
	// ZERO_RESULTS is a valid empty answer, not an error.
	if parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		msg := parsed.Status
		if parsed.ErrorMessage != "" {
			msg += ": " + parsed.ErrorMessage
		}
		return nil, fmt.Errorf("geocode: %s", msg)
	}

	places := make([]Place, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		p := Place{
			Name:             r.Name,
			Address:          r.Vicinity,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			Location:         r.Geometry.Location,
			PlaceID:          r.PlaceID,
			Types:            r.Types,
		}
		if r.OpeningHours != nil {
			open := r.OpeningHours.OpenNow
			p.OpenNow = &open
		}
		places = append(places, p)
	}
	return places, nil
}
