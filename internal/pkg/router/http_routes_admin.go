package router

import (
	"github.com/VyaparLabs/OrderDesk/app/controllers"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	admin := controllers.NewAdminController(repository.GetGlobalRepositories())

	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", admin.HandleDashboard)
	adminGroup.Get("/status", admin.HandleSystemStatus)
	adminGroup.Get("/users", admin.HandleUsers)
	adminGroup.Get("/users/:id/edit", admin.HandleUserEdit)
	adminGroup.Post("/users/update/:id", admin.HandleUserUpdate)
	adminGroup.Post("/users/create", admin.HandleUserCreate)
	adminGroup.Post("/users/delete/:id", admin.HandleUserDelete)
	adminGroup.Get("/settings", admin.HandleSettings)
	adminGroup.Post("/settings", admin.HandleSettingsUpdate)
	adminGroup.Post("/dedup/reset", admin.HandleDedupReset)
}
