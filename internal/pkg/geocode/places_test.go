package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(server *httptest.Server) *Client {
	return &Client{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestNearby(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "hospital", q.Get("type"))
		assert.Equal(t, "5000", q.Get("radius"))

		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"name": "City Clinic",
					"vicinity": "12 Main St",
					"rating": 4.4,
					"user_ratings_total": 120,
					"place_id": "pid-1",
					"geometry": {"location": {"lat": 52.52, "lng": 13.4}},
					"opening_hours": {"open_now": true}
				},
				{
					"name": "Walk-in Care",
					"vicinity": "34 Side St",
					"place_id": "pid-2",
					"geometry": {"location": {"lat": 52.51, "lng": 13.39}}
				}
			]
		}`))
	}))
	defer server.Close()

	places, err := testClient(server).Nearby(context.Background(), NearbyQuery{
		Latitude:  52.52,
		Longitude: 13.4,
		RadiusM:   5000,
		Type:      "hospital",
	})
	require.NoError(t, err)
	require.Len(t, places, 2)

	assert.Equal(t, "City Clinic", places[0].Name)
	assert.Equal(t, "12 Main St", places[0].Address)
	assert.Equal(t, 52.52, places[0].Location.Lat)
	require.NotNil(t, places[0].OpenNow)
	assert.True(t, *places[0].OpenNow)

	// Missing opening_hours leaves OpenNow nil instead of a false default.
	assert.Nil(t, places[1].OpenNow)
}

func TestNearby_ZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	places, err := testClient(server).Nearby(context.Background(), NearbyQuery{Latitude: 1, Longitude: 1, RadiusM: 1000})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestNearby_DeniedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "key invalid"}`))
	}))
	defer server.Close()

	_, err := testClient(server).Nearby(context.Background(), NearbyQuery{Latitude: 1, Longitude: 1, RadiusM: 1000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "key invalid")
}

func TestNearby_MissingKey(t *testing.T) {
	c := &Client{HTTPClient: http.DefaultClient}
	_, err := c.Nearby(context.Background(), NearbyQuery{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
