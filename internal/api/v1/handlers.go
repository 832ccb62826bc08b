package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/VyaparLabs/OrderDesk/app/controllers"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
)

// APIServer groups the public v1 handlers
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetProfile returns account information for the authenticated API key.
// Security is enforced via API key middleware attached in the router.
func (s *APIServer) GetProfile(c *fiber.Ctx) error {
	user, err := repository.GetGlobalRepositories().User.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}
	return c.JSON(fiber.Map{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"role":        user.Role,
		"alert_email": user.AlertEmail,
	})
}

// GetOrders lists open orders
func (s *APIServer) GetOrders(c *fiber.Ctx) error {
	return controllers.HandleOrderList(c)
}

// GetOrder returns a single order by UUID
func (s *APIServer) GetOrder(c *fiber.Ctx) error {
	return controllers.HandleOrderGet(c)
}

// PostOrder creates a buy order
func (s *APIServer) PostOrder(c *fiber.Ctx) error {
	return controllers.HandleOrderCreate(c)
}

// PatchOrder applies a partial order update
func (s *APIServer) PatchOrder(c *fiber.Ctx) error {
	return controllers.HandleOrderUpdate(c)
}

// DeleteOrder soft deletes an order. Admin only.
func (s *APIServer) DeleteOrder(c *fiber.Ctx) error {
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin role required",
		})
	}
	return controllers.HandleOrderDelete(c)
}

// PostOrderAttend acknowledges an order's active alert
func (s *APIServer) PostOrderAttend(c *fiber.Ctx) error {
	return controllers.HandleOrderAttend(c)
}

// PostOrderPayment records a payment against an order
func (s *APIServer) PostOrderPayment(c *fiber.Ctx) error {
	return controllers.HandlePaymentCreate(c)
}

// GetCues drains the caller's pending sound cues
func (s *APIServer) GetCues(c *fiber.Ctx) error {
	return controllers.HandleCuePoll(c)
}

// GetNotifications lists the caller's alert feed
func (s *APIServer) GetNotifications(c *fiber.Ctx) error {
	return controllers.HandleNotificationList(c)
}

// PostNotificationRead marks one feed entry as read
func (s *APIServer) PostNotificationRead(c *fiber.Ctx) error {
	return controllers.HandleNotificationMarkRead(c)
}

// DeleteNotifications clears the caller's feed
func (s *APIServer) DeleteNotifications(c *fiber.Ctx) error {
	return controllers.HandleNotificationClear(c)
}

// RegisterHandlers wires the v1 endpoints onto the given router group
func RegisterHandlers(router fiber.Router, server *APIServer) {
	router.Get("/ping", server.GetPing)
	router.Get("/profile", server.GetProfile)

	router.Get("/orders", server.GetOrders)
	router.Post("/orders", server.PostOrder)
	router.Get("/orders/:uuid", server.GetOrder)
	router.Patch("/orders/:uuid", server.PatchOrder)
	router.Put("/orders/:uuid", server.PatchOrder)
	router.Delete("/orders/:uuid", server.DeleteOrder)
	router.Post("/orders/:uuid/attend", server.PostOrderAttend)
	router.Post("/orders/:uuid/payments", server.PostOrderPayment)

	router.Get("/cues", server.GetCues)
	router.Get("/notifications", server.GetNotifications)
	router.Post("/notifications/:id/read", server.PostNotificationRead)
	router.Delete("/notifications", server.DeleteNotifications)
	router.Post("/notifications/clear", server.DeleteNotifications)
}
