package controllers

import (
	"errors"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/internal/pkg/geocode"
)

var (
	placesClient     *geocode.Client
	placesClientOnce sync.Once
)

func getPlacesClient() *geocode.Client {
	placesClientOnce.Do(func() {
		placesClient = geocode.NewClientFromEnv()
	})
	return placesClient
}

// parseLatLng reads lat/lng query parameters; ok is false when either is
// missing or malformed.
func parseLatLng(c *fiber.Ctx) (lat, lng float64, ok bool) {
	var err error
	if lat, err = strconv.ParseFloat(c.Query("lat"), 64); err != nil {
		return 0, 0, false
	}
	if lng, err = strconv.ParseFloat(c.Query("lng"), 64); err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// HandleNearbyClinics proxies a Places nearby search for clinics around the
// given coordinates. radius_km defaults to 5 and is capped at 50.
func HandleNearbyClinics(c *fiber.Ctx) error {
	lat, lng, ok := parseLatLng(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "lat and lng are required"})
	}

	radiusKm := 5.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "radius_km must be a positive number"})
		}
		radiusKm = parsed
	}
	if radiusKm > 50 {
		radiusKm = 50
	}

	placeType := c.Query("type")
	if placeType == "" {
		placeType = "hospital"
	}

	places, err := getPlacesClient().Nearby(c.Context(), geocode.NearbyQuery{
		Latitude:  lat,
		Longitude: lng,
		RadiusM:   radiusKm * 1000,
		Type:      placeType,
	})
	if err != nil {
		if errors.Is(err, geocode.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "not_configured", "message": "Location search is not available"})
		}
		log.Errorf("nearby clinics search failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Failed to search nearby clinics"})
	}

	return c.JSON(fiber.Map{"clinics": places})
}
