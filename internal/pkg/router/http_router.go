package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stellaboard/stellaboard/app/controllers"
	"github.com/stellaboard/stellaboard/internal/pkg/middleware"
	"github.com/stellaboard/stellaboard/internal/pkg/oauth"
	"github.com/stellaboard/stellaboard/internal/pkg/session"
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

	// Session auth
	app.Post("/register", controllers.HandleRegister)
	app.Post("/login", controllers.HandleLogin)
	app.Post("/logout", controllers.HandleLogout)

	// OAuth connect flow
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)

	// Payment provider callbacks, authenticated by signature, not session
	app.Post("/api/billing/webhook", controllers.HandleBillingWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
