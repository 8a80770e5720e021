package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/askdrhq/askdr/app/controllers"
	"github.com/askdrhq/askdr/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	v1 := api.Group("/v1")
	v1.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "ok",
		})
	})

	// Auth
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/logout", middleware.RequireAuth, controllers.HandleLogout)

	// Feature entitlements
	features := v1.Group("/features")
	features.Get("/access", controllers.HandleCheckFeatureAccess)
	features.Post("/usage", middleware.RequireAuth, controllers.HandleRecordFeatureUsage)

	// AI features. Guests are allowed within the session limit, so no auth
	// middleware here; quota enforcement happens in the handlers.
	v1.Post("/symptoms/check", controllers.HandleSymptomCheck)
	v1.Post("/medications/ask", controllers.HandleMedicationQA)
	v1.Post("/chat/ask", controllers.HandleAskAI)
	v1.Get("/chat/sessions/:id", controllers.HandleChatHistory)

	// Mental health
	mh := v1.Group("/mentalhealth")
	mh.Post("/chat", controllers.HandleAnonymousChat)
	mh.Get("/journal", middleware.RequireAuth, controllers.HandleJournalEntries)
	mh.Post("/journal", middleware.RequireAuth, controllers.HandleJournalEntries)
	mh.Get("/journal/prompts", controllers.HandleJournalPrompts)
	mh.Get("/wellness-tip", controllers.HandleWellnessTip)
	mh.Post("/mood", middleware.RequireAuth, controllers.HandleLogMood)
	mh.Get("/mood/history", middleware.RequireAuth, controllers.HandleMoodHistory)
	mh.Get("/therapists/nearby", controllers.HandleNearbyTherapists)
	mh.Get("/therapists", controllers.HandleTherapistDirectory)

	// Reminders (paid plans only, enforced in the handlers)
	reminders := v1.Group("/reminders", middleware.RequireAuth)
	reminders.Get("/", controllers.HandleListReminders)
	reminders.Post("/", controllers.HandleCreateReminder)
	reminders.Put("/:id", controllers.HandleUpdateReminder)
	reminders.Delete("/:id", controllers.HandleDeleteReminder)

	// Clinics
	v1.Get("/clinics/nearby", controllers.HandleNearbyClinics)

	// Billing
	billing := v1.Group("/billing", middleware.RequireAuth)
	billing.Post("/checkout", controllers.HandleCreateCheckout)
	billing.Post("/cancel", controllers.HandleCancelSubscription)
	billing.Get("/status", controllers.HandleSubscriptionStatus)

	// Notification preferences
	notifications := v1.Group("/notifications", middleware.RequireAuth)
	notifications.Get("/preferences", controllers.HandleGetNotificationPreferences)
	notifications.Put("/preferences", controllers.HandleUpdateNotificationPreferences)

	// Account
	user := v1.Group("/user", middleware.RequireAuth)
	user.Get("/", controllers.HandleGetAccount)
	user.Put("/", controllers.HandleUpdateAccount)
	user.Post("/change-password", controllers.HandleChangePassword)
	user.Delete("/", controllers.HandleDeleteAccount)

	// Email change confirmation arrives from a mailed link, outside a session.
	v1.Get("/user/confirm-email", controllers.HandleConfirmEmailChange)

	// Admin
	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Post("/reminders/scan", controllers.HandleAdminRunScan)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
