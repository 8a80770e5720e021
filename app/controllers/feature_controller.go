package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
)

// HandleCheckFeatureAccess reports whether the authenticated user may use a
// feature right now, with usage context for rendering upgrade prompts.
func HandleCheckFeatureAccess(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	feature, ok := entitlements.ParseFeature(c.Query("feature"))
	if !ok {
		// Unknown features are denied, not errored.
		return c.JSON(fiber.Map{"has_access": false})
	}

	repo := repository.GetGlobalFactory().GetProfileRepository()
	profile, err := repo.GetOrCreate(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load profile"})
	}
	if err := ensureFreshCounters(repo, profile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to refresh usage"})
	}

	return c.JSON(entitlements.CheckAccess(profile, feature))
}

// HandleRecordFeatureUsage explicitly consumes one unit of a feature's quota.
// Paid plans report success without touching counters.
func HandleRecordFeatureUsage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	var req struct {
		Feature string `json:"feature"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	feature, ok := entitlements.ParseFeature(req.Feature)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Unknown feature"})
	}

	repo := repository.GetGlobalFactory().GetProfileRepository()
	profile, err := repo.GetOrCreate(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to load profile"})
	}
	if err := ensureFreshCounters(repo, profile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to refresh usage"})
	}

	if profile.IsPaid() {
		recordFeatureUse(feature)
		return c.JSON(fiber.Map{"success": true})
	}

	consumed, err := repo.ConsumeIfBelow(userCtx.UserID, feature, entitlements.MonthlyLimit(feature))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to record usage"})
	}
	if !consumed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Monthly limit reached"})
	}
	recordFeatureUse(feature)
	return c.JSON(fiber.Map{"success": true})
}
