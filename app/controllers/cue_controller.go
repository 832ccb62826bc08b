package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/internal/pkg/cue"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
)

// HandleCuePoll drains the user's pending sound cues. The client polls this
// endpoint and plays whatever comes back, so each cue is delivered once.
func HandleCuePoll(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	cues, err := cue.Drain(userID)
	if err != nil {
		log.Errorf("[Cues] Drain for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to fetch cues"})
	}

	return c.JSON(fiber.Map{"cues": cues})
}
