package router

import (
	"strings"
	"time"

	"github.com/VyaparLabs/OrderDesk/app/controllers"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/env"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleStart)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)

	group.Get("/user/profile", middleware.RequireAuth, controllers.HandleUserProfile)
	group.Post("/user/settings", middleware.RequireAuth, controllers.HandleUserSettingsUpdate)
	group.Post("/user/settings/api-key", middleware.RequireAuth, controllers.HandleUserAPIKeyGenerate)
	group.Post("/user/settings/api-key/revoke", middleware.RequireAuth, controllers.HandleUserAPIKeyRevoke)
}
