package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/jobqueue"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/metrics/counter"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/watcher"
)

// AdminController handles admin-related HTTP requests using the repository pattern
type AdminController struct {
	repos *repository.Repositories
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories) *AdminController {
	return &AdminController{
		repos: repos,
	}
}

// HandleDashboard renders the admin dashboard with order and system figures
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}

	totalOrders, err := ac.repos.Order.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get order count", err)
	}

	statusCounts := make(map[string]int64)
	for _, status := range []string{
		models.ORDER_STATUS_NEW,
		models.ORDER_STATUS_BANKING_COLLECTED,
		models.ORDER_STATUS_PAID,
		models.ORDER_STATUS_COMPLETED,
		models.ORDER_STATUS_CANCELLED,
	} {
		cnt, err := ac.repos.Order.CountByStatus(status)
		if err != nil {
			log.Warnf("[Admin] Count for status %s failed: %v", status, err)
			continue
		}
		statusCounts[status] = cnt
	}

	todayOrders, err := ac.repos.Order.CountCreatedSince(startOfToday())
	if err != nil {
		log.Warnf("[Admin] Today count failed: %v", err)
	}

	openAmount, err := ac.repos.Order.SumOpenAmount()
	if err != nil {
		log.Warnf("[Admin] Open amount failed: %v", err)
	}

	recentOrders, err := ac.repos.Order.List(0, 10)
	if err != nil {
		return ac.handleError(c, "Failed to get recent orders", err)
	}

	return c.Render("admin/dashboard", fiber.Map{
		"Title":           "Admin Dashboard",
		"FromProtected":   true,
		"IsAdmin":         userCtx.IsAdmin,
		"TotalUsers":      totalUsers,
		"TotalOrders":     totalOrders,
		"TodayOrders":     todayOrders,
		"OpenAmount":      openAmount,
		"StatusCounts":    statusCounts,
		"RecentOrders":    recentOrders,
		"WatcherRunning":  watcher.GetWatcher().IsRunning(),
		"QueueRunning":    jobqueue.GetManager().IsRunning(),
		"ReconcilePasses": counter.GetReconcilePasses(),
		"Flash":           flash.Get(c),
	}, "layouts/main")
}

// HandleSystemStatus returns watcher and job queue state as JSON for the
// dashboard's status widget.
func (ac *AdminController) HandleSystemStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	queue := jobqueue.GetManager().GetQueue()
	stats, err := queue.GetJobStats(ctx)
	if err != nil {
		log.Warnf("[Admin] Job stats failed: %v", err)
	}
	queueSize, _ := queue.GetQueueSize(ctx)
	processing, _ := queue.GetProcessingSize(ctx)

	return c.JSON(fiber.Map{
		"watcher_running":  watcher.GetWatcher().IsRunning(),
		"queue_running":    jobqueue.GetManager().IsRunning(),
		"reconcile_passes": counter.GetReconcilePasses(),
		"job_stats":        stats,
		"queue_size":       queueSize,
		"processing_size":  processing,
	})
}

// HandleUsers renders the user management page
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := 20
	offset := (page - 1) * perPage

	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}

	users, err := ac.repos.User.List(offset, perPage)
	if err != nil {
		return ac.handleError(c, "Failed to get users", err)
	}

	totalPages := int(totalUsers) / perPage
	if int(totalUsers)%perPage > 0 {
		totalPages++
	}
	pages := make([]int, totalPages)
	for i := range pages {
		pages[i] = i + 1
	}

	return c.Render("admin/users", fiber.Map{
		"Title":         "User Management",
		"FromProtected": true,
		"IsAdmin":       userCtx.IsAdmin,
		"Users":         summarizeUsers(users),
		"Page":          page,
		"Pages":         pages,
		"PrevPage":      page - 1,
		"NextPage":      page + 1,
		"CSRFToken":     c.Locals("csrf"),
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

// HandleUserEdit renders the user edit form
func (ac *AdminController) HandleUserEdit(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/users")
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"})
		return c.Redirect("/admin/users")
	}

	return c.Render("admin/user_edit", fiber.Map{
		"Title":         "Edit User",
		"FromProtected": true,
		"IsAdmin":       userCtx.IsAdmin,
		"User":          user,
		"CSRFToken":     c.Locals("csrf"),
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

// HandleUserUpdate processes the user edit form
func (ac *AdminController) HandleUserUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/users")
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"})
		return c.Redirect("/admin/users")
	}

	if name := c.FormValue("name"); name != "" {
		user.Name = name
	}
	if email := c.FormValue("email"); email != "" {
		user.Email = email
	}
	if role := c.FormValue("role"); role != "" {
		user.Role = role
	}
	if status := c.FormValue("status"); status != "" {
		user.Status = status
	}
	user.AlertEmail = c.FormValue("alert_email") == "on"

	if err := user.Validate(); err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid user data: " + err.Error()})
		return c.Redirect("/admin/users/" + c.Params("id") + "/edit")
	}

	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Failed to update user", err)
	}

	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "User updated"})
	return c.Redirect("/admin/users")
}

// HandleUserCreate creates a new desk user from the admin form
func (ac *AdminController) HandleUserCreate(c *fiber.Ctx) error {
	name := c.FormValue("name")
	email := c.FormValue("email")
	password := c.FormValue("password")
	role := c.FormValue("role", models.ROLE_OPERATOR)

	user, err := models.CreateUser(name, email, password, role)
	if err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid user data: " + err.Error()})
		return c.Redirect("/admin/users")
	}

	if err := ac.repos.User.Create(user); err != nil {
		return ac.handleError(c, "Failed to create user", err)
	}

	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "User created"})
	return c.Redirect("/admin/users")
}

// HandleUserDelete soft deletes a user
func (ac *AdminController) HandleUserDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Redirect("/admin/users")
	}

	if uint(id) == usercontext.GetUserID(c) {
		flash.WithError(c, fiber.Map{"type": "error", "message": "You cannot delete your own account"})
		return c.Redirect("/admin/users")
	}

	if err := ac.repos.User.Delete(uint(id)); err != nil {
		return ac.handleError(c, "Failed to delete user", err)
	}

	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "User deleted"})
	return c.Redirect("/admin/users")
}

// HandleSettings renders the application settings form
func (ac *AdminController) HandleSettings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	settings, err := ac.repos.Setting.Get()
	if err != nil {
		return ac.handleError(c, "Failed to load settings", err)
	}

	return c.Render("admin/settings", fiber.Map{
		"Title":         "Settings",
		"FromProtected": true,
		"IsAdmin":       userCtx.IsAdmin,
		"Settings":      settings,
		"CSRFToken":     c.Locals("csrf"),
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

// HandleSettingsUpdate saves the settings form and restarts the watcher so
// the new poll interval and thresholds take effect.
func (ac *AdminController) HandleSettingsUpdate(c *fiber.Ctx) error {
	settings := &models.AppSettings{
		SiteTitle:             c.FormValue("site_title"),
		PollIntervalSeconds:   formInt(c, "poll_interval_seconds", 30),
		StaleToleranceSeconds: formInt(c, "stale_tolerance_seconds", 10),
		AlarmRepeatMs:         formInt(c, "alarm_repeat_ms", 1500),
		PaymentWarnMinutes:    formInt(c, "payment_warn_minutes", 5),
		PaymentFinalMinutes:   formInt(c, "payment_final_minutes", 2),
		JobQueueWorkerCount:   formInt(c, "job_queue_worker_count", 3),
		AlertEmailEnabled:     c.FormValue("alert_email_enabled") == "on",
	}

	if err := ac.repos.Setting.Save(settings); err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "Failed to save settings: " + err.Error()})
		return c.Redirect("/admin/settings")
	}

	w := watcher.GetWatcher()
	if w.IsRunning() {
		w.Stop()
		w.Start()
	}

	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Settings saved"})
	return c.Redirect("/admin/settings")
}

// HandleDedupReset clears the alert dedup ledger, reinstating suppressed alerts
func (ac *AdminController) HandleDedupReset(c *fiber.Ctx) error {
	watcher.GetWatcher().ResetDedup()
	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Alert dedup state cleared"})
	return c.Redirect("/admin")
}

// handleError logs the error and redirects with a flash message
func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Admin] %s: %v", message, err)
	flash.WithError(c, fiber.Map{"type": "error", "message": message})
	return c.Redirect("/admin")
}

func formInt(c *fiber.Ctx, name string, fallback int) int {
	v, err := strconv.Atoi(c.FormValue(name))
	if err != nil {
		return fallback
	}
	return v
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
