package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
)

type reminderRequest struct {
	ReminderType string    `json:"reminder_type"`
	Title        string    `json:"title"`
	Notes        string    `json:"notes"`
	StartTime    time.Time `json:"start_time"`
	Frequency    string    `json:"frequency"`
}

// requirePaidReminders gates reminder endpoints to paying plans. Returns false
// with the response already written when access is denied.
func requirePaidReminders(c *fiber.Ctx) bool {
	userCtx := usercontext.GetUserContext(c)
	profile, err := repository.GetGlobalRepositories().Profile.GetOrCreate(userCtx.UserID)
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Failed to load profile",
		})
		return false
	}
	if !entitlements.CanUseReminders(profile) {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":            "plan_required",
			"message":          "Reminders are available on Plus and Pro plans.",
			"requires_upgrade": true,
		})
		return false
	}
	return true
}

// HandleListReminders returns the current user's reminders.
func HandleListReminders(c *fiber.Ctx) error {
	if !requirePaidReminders(c) {
		return nil
	}
	userCtx := usercontext.GetUserContext(c)

	reminders, err := repository.GetGlobalRepositories().Reminder.ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load reminders"})
	}
	return c.JSON(fiber.Map{"reminders": reminders})
}

// HandleCreateReminder creates a reminder. The first trigger is the start
// time, even when that is already in the past; the next scan will pick it up.
func HandleCreateReminder(c *fiber.Ctx) error {
	if !requirePaidReminders(c) {
		return nil
	}
	userCtx := usercontext.GetUserContext(c)

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.ReminderType == "" {
		req.ReminderType = models.ReminderTypeMedication
	}
	if req.Frequency == "" {
		req.Frequency = models.FrequencyOnce
	}

	reminder := models.Reminder{
		UserID:       userCtx.UserID,
		ReminderType: req.ReminderType,
		Title:        strings.TrimSpace(req.Title),
		Notes:        req.Notes,
		StartTime:    req.StartTime,
		Frequency:    req.Frequency,
		NextTrigger:  req.StartTime,
		IsActive:     true,
	}
	if err := reminder.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid reminder: " + err.Error()})
	}

	if err := repository.GetGlobalRepositories().Reminder.Create(&reminder); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create reminder"})
	}
	return c.Status(fiber.StatusCreated).JSON(reminder)
}

// HandleUpdateReminder updates an owned reminder. Changing the start time
// resets the trigger to it and re-arms the current occurrence.
func HandleUpdateReminder(c *fiber.Ctx) error {
	if !requirePaidReminders(c) {
		return nil
	}
	userCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid reminder id"})
	}

	repo := repository.GetGlobalRepositories().Reminder
	reminder, err := repo.GetByIDForUser(uint(id), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Reminder not found"})
	}

	var req struct {
		ReminderType *string    `json:"reminder_type"`
		Title        *string    `json:"title"`
		Notes        *string    `json:"notes"`
		StartTime    *time.Time `json:"start_time"`
		Frequency    *string    `json:"frequency"`
		IsActive     *bool      `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if req.ReminderType != nil {
		reminder.ReminderType = *req.ReminderType
	}
	if req.Title != nil {
		reminder.Title = strings.TrimSpace(*req.Title)
	}
	if req.Notes != nil {
		reminder.Notes = *req.Notes
	}
	if req.Frequency != nil {
		reminder.Frequency = *req.Frequency
	}
	if req.StartTime != nil {
		reminder.StartTime = *req.StartTime
		reminder.NextTrigger = *req.StartTime
		reminder.EmailSent = false
	}
	if req.IsActive != nil {
		reminder.IsActive = *req.IsActive
		if *req.IsActive && reminder.Frequency == models.FrequencyOnce {
			// Reactivating a fired one-shot re-arms it.
			reminder.EmailSent = false
		}
	}
	if err := reminder.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid reminder: " + err.Error()})
	}

	if err := repo.Update(reminder); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update reminder"})
	}
	return c.JSON(reminder)
}

// HandleDeleteReminder retires an owned reminder. The row is deactivated, not
// removed, so it never fires again but stays visible in the list.
func HandleDeleteReminder(c *fiber.Ctx) error {
	if !requirePaidReminders(c) {
		return nil
	}
	userCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid reminder id"})
	}

	if err := repository.GetGlobalRepositories().Reminder.Delete(uint(id), userCtx.UserID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Reminder not found"})
	}
	return c.JSON(fiber.Map{"message": "Reminder deleted"})
}
