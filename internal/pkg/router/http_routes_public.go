package router

import (
	"github.com/VyaparLabs/OrderDesk/app/controllers"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// API routes moved to ApiRouter (internal/pkg/router/api_router.go)
	app.Get("/docs/api", loggedInMiddleware, controllers.HandleDocsAPI)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
}
