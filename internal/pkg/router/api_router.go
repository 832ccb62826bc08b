package router

import (
	"strings"

	apiv1 "github.com/VyaparLabs/OrderDesk/internal/api/v1"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes: API keys for external clients, web sessions for the UI
	v1 := api.Group("/v1", apiAuthMiddleware())
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// apiAuthMiddleware authenticates via API key when one is presented,
// otherwise falls back to the web session. Ping stays public.
func apiAuthMiddleware() fiber.Handler {
	keyAuth := middleware.APIKeyAuthMiddleware()
	return func(c *fiber.Ctx) error {
		if c.Path() == "/api/v1/ping" {
			return c.Next()
		}
		if hasAPIKeyHeader(c) {
			return keyAuth(c)
		}
		return middleware.RequireAPISessionAuth(c)
	}
}

func hasAPIKeyHeader(c *fiber.Ctx) bool {
	if strings.TrimSpace(c.Get("X-API-Key")) != "" {
		return true
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	return strings.HasPrefix(strings.ToLower(auth), "bearer ")
}
