package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/realtime"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
)

// HandleNotificationList returns the user's feed, newest first.
func HandleNotificationList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}

	repos := repository.GetGlobalRepositories()
	notifications, err := repos.Notification.ListByUserID(userID, offset, limit)
	if err != nil {
		log.Errorf("[Notifications] List for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load notifications"})
	}

	unread, err := repos.Notification.CountUnreadByUserID(userID)
	if err != nil {
		log.Warnf("[Notifications] Unread count for user %d failed: %v", userID, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// HandleNotificationMarkRead marks a single entry as read.
func HandleNotificationMarkRead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid notification id"})
	}

	userID := usercontext.GetUserID(c)
	if err := repository.GetGlobalRepositories().Notification.MarkRead(uint(id), userID); err != nil {
		log.Errorf("[Notifications] MarkRead %d for user %d failed: %v", id, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to mark notification"})
	}

	return c.JSON(fiber.Map{"read": true})
}

// HandleNotificationClear wipes the user's feed and broadcasts the clear
// signal so every watcher instance drops its dedup state.
func HandleNotificationClear(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	if err := repository.GetGlobalRepositories().Notification.ClearByUserID(userID); err != nil {
		log.Errorf("[Notifications] Clear for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to clear notifications"})
	}

	if err := realtime.PublishSignal(realtime.SignalNotificationsCleared, userID); err != nil {
		log.Warnf("[Notifications] Clear signal publish failed: %v", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
