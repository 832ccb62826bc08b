package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
)

// HandleDocsAPI renders the API documentation page. The interactive
// reference is served by the swagger middleware from the OpenAPI file.
func HandleDocsAPI(c *fiber.Ctx) error {
	return c.Render("docs", fiber.Map{
		"Title":         "API Documentation",
		"FromProtected": isLoggedIn(c),
		"IsAdmin":       usercontext.IsAdmin(c),
		"SwaggerPath":   "/api/v1/docs",
		"SpecPath":      "/docs/v1/openapi.yml",
		"Flash":         flash.Get(c),
	}, "layouts/main")
}
