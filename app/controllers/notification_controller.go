package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/internal/pkg/database"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
)

// HandleGetNotificationPreferences returns the user's delivery toggles,
// creating the all-enabled defaults on first read.
func HandleGetNotificationPreferences(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	pref, err := models.GetOrCreateNotificationPreference(database.GetDB(), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load preferences"})
	}
	return c.JSON(pref)
}

type notificationPreferencesRequest struct {
	EmailNotifications   *bool `json:"email_notifications"`
	PushNotifications    *bool `json:"push_notifications"`
	MedicationReminders  *bool `json:"medication_reminders"`
	AppointmentReminders *bool `json:"appointment_reminders"`
	HealthTips           *bool `json:"health_tips"`
	WeeklyReports        *bool `json:"weekly_reports"`
}

// HandleUpdateNotificationPreferences applies partial toggle updates.
func HandleUpdateNotificationPreferences(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	db := database.GetDB()

	pref, err := models.GetOrCreateNotificationPreference(db, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load preferences"})
	}

	var req notificationPreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if req.EmailNotifications != nil {
		pref.EmailNotifications = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		pref.PushNotifications = *req.PushNotifications
	}
	if req.MedicationReminders != nil {
		pref.MedicationReminders = *req.MedicationReminders
	}
	if req.AppointmentReminders != nil {
		pref.AppointmentReminders = *req.AppointmentReminders
	}
	if req.HealthTips != nil {
		pref.HealthTips = *req.HealthTips
	}
	if req.WeeklyReports != nil {
		pref.WeeklyReports = *req.WeeklyReports
	}

	if err := db.Save(pref).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save preferences"})
	}
	return c.JSON(pref)
}
