package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/statistics"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
)

// HandleStart renders the order desk dashboard: open orders, statistics and
// the unread alert count for the current user.
func HandleStart(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	stats := statistics.GetStatisticsData()

	var orders []models.BuyOrder
	var unread int64
	if userCtx.IsLoggedIn {
		repos := repository.GetGlobalRepositories()
		if open, err := repos.Order.ListOpen(); err == nil {
			orders = open
		}
		if n, err := repos.Notification.CountUnreadByUserID(userCtx.UserID); err == nil {
			unread = n
		}
	}

	settings := models.GetAppSettings()
	return c.Render("index", fiber.Map{
		"Title":         settings.GetSiteTitle(),
		"FromProtected": userCtx.IsLoggedIn,
		"Username":      userCtx.Username,
		"IsAdmin":       userCtx.IsAdmin,
		"Role":          userCtx.Role,
		"Flash":         flash.Get(c),
		"Orders":        orders,
		"OpenOrders":    stats.OpenOrders,
		"TodayOrders":   stats.TodayOrders,
		"OpenAmount":    stats.OpenAmount,
		"UnreadAlerts":  unread,
		"PollInterval":  settings.GetPollInterval().Milliseconds(),
	}, "layouts/main")
}
