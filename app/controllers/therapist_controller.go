package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/geocode"
)

// HandleNearbyTherapists searches mental health providers around the given
// coordinates via the Places API.
func HandleNearbyTherapists(c *fiber.Ctx) error {
	lat, lng, ok := parseLatLng(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "lat and lng are required"})
	}

	places, err := getPlacesClient().Nearby(c.Context(), geocode.NearbyQuery{
		Latitude:  lat,
		Longitude: lng,
		RadiusM:   5000,
		Type:      "health",
		Keyword:   "therapist OR psychologist OR counseling",
	})
	if err != nil {
		if errors.Is(err, geocode.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "not_configured", "message": "Location search is not available"})
		}
		log.Errorf("nearby therapists search failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Failed to search nearby therapists"})
	}

	return c.JSON(fiber.Map{"therapists": places})
}

// HandleTherapistDirectory lists the curated therapist directory with
// optional specialty/location/verified filters.
func HandleTherapistDirectory(c *fiber.Ctx) error {
	filter := repository.TherapistFilter{
		Specialty: c.Query("specialty"),
		Location:  c.Query("location"),
		Offset:    c.QueryInt("offset", 0),
		Limit:     c.QueryInt("limit", 50),
	}
	if raw := c.Query("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "verified must be true or false"})
		}
		filter.Verified = &verified
	}

	repo := repository.GetGlobalRepositories().Therapist
	therapists, err := repo.List(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load therapists"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load therapists"})
	}

	return c.JSON(fiber.Map{"therapists": therapists, "total": total})
}
