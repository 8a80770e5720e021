package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/askdrhq/askdr/app/controllers"
	"github.com/askdrhq/askdr/internal/pkg/middleware"
	"github.com/askdrhq/askdr/internal/pkg/oauth"
	"github.com/askdrhq/askdr/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Billing provider webhooks (signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}
