package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/database"
	"github.com/askdrhq/askdr/internal/pkg/scheduler"
)

// HandleAdminStats returns operational counters for the admin dashboard.
func HandleAdminStats(c *fiber.Ctx) error {
	db := database.GetDB()
	repos := repository.GetGlobalRepositories()

	userCount, err := repos.User.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}

	var paidUsers int64
	if err := db.Model(&models.UserProfile{}).Where("plan IN ?", []string{models.PlanPlus, models.PlanPro}).Count(&paidUsers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}

	var activeReminders int64
	if err := db.Model(&models.Reminder{}).Where("is_active = ?", true).Count(&activeReminders).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}

	since := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	var featureStats []models.DailyFeatureStat
	if err := db.Where("date >= ?", since).Order("date ASC, feature ASC").Find(&featureStats).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load stats"})
	}

	return c.JSON(fiber.Map{
		"users":             userCount,
		"paid_users":        paidUsers,
		"active_reminders":  activeReminders,
		"scheduler_running": scheduler.GetManager(db).IsRunning(),
		"feature_usage":     featureStats,
	})
}

// HandleAdminRunScan triggers a reminder scan immediately.
func HandleAdminRunScan(c *fiber.Ctx) error {
	result, err := scheduler.GetManager(database.GetDB()).RunScanOnce()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Scan failed: " + err.Error()})
	}
	return c.JSON(result)
}
