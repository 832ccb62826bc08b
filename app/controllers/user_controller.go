package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/utils"
)

// HandleUserProfile renders the profile page with alert preferences and
// API key state.
func HandleUserProfile(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	user, err := repository.GetGlobalRepositories().User.GetByID(userID)
	if err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"})
		return c.Redirect("/")
	}

	csrfToken, _ := c.Locals("csrf").(string)

	return c.Render("user/profile", fiber.Map{
		"Title":         "Profile",
		"FromProtected": true,
		"CSRFToken":     csrfToken,
		"User":          user,
		"AvatarURL":     utils.GetGravatarURL(user.Email, 96),
		"HasAPIKey":     user.APIKeyHash != "",
		"APIKeyLastUse": user.APIKeyLastUsedAt,
		"IsAdmin":       usercontext.IsAdmin(c),
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

// HandleUserSettingsUpdate processes the profile form: display name,
// password change and the alert email toggle.
func HandleUserSettingsUpdate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userID)
	if err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"})
		return c.Redirect("/")
	}

	if name := c.FormValue("name"); name != "" {
		user.Name = name
	}
	user.AlertEmail = c.FormValue("alert_email") == "on"

	if password := c.FormValue("password"); password != "" {
		current := c.FormValue("current_password")
		if !user.CheckPassword(current) {
			flash.WithError(c, fiber.Map{"type": "error", "message": "Current password is incorrect"})
			return c.Redirect("/user/profile")
		}
		if err := user.SetPassword(password); err != nil {
			flash.WithError(c, fiber.Map{"type": "error", "message": "Failed to update password"})
			return c.Redirect("/user/profile")
		}
	}

	if err := user.Validate(); err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid profile data: " + err.Error()})
		return c.Redirect("/user/profile")
	}

	if err := repos.User.Update(user); err != nil {
		log.Errorf("[User] Settings update for %d failed: %v", userID, err)
		flash.WithError(c, fiber.Map{"type": "error", "message": "Failed to save settings"})
		return c.Redirect("/user/profile")
	}

	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Settings saved"})
	return c.Redirect("/user/profile")
}

// HandleUserAPIKeyGenerate mints a fresh API key. The plain key is shown
// exactly once; only its hash is stored.
func HandleUserAPIKeyGenerate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userID)
	if err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"})
		return c.Redirect("/")
	}

	key, err := user.GenerateAPIKey()
	if err != nil {
		log.Errorf("[User] API key generation for %d failed: %v", userID, err)
		flash.WithError(c, fiber.Map{"type": "error", "message": "Failed to generate API key"})
		return c.Redirect("/user/profile")
	}
	user.APIKeyLastUsedAt = nil

	if err := repos.User.Update(user); err != nil {
		log.Errorf("[User] API key save for %d failed: %v", userID, err)
		flash.WithError(c, fiber.Map{"type": "error", "message": "Failed to save API key"})
		return c.Redirect("/user/profile")
	}

	csrfToken, _ := c.Locals("csrf").(string)

	return c.Render("user/profile", fiber.Map{
		"Title":         "Profile",
		"FromProtected": true,
		"CSRFToken":     csrfToken,
		"User":          user,
		"HasAPIKey":     true,
		"NewAPIKey":     key,
		"IsAdmin":       usercontext.IsAdmin(c),
		"Flash":         flash.Get(c),
	}, "layouts/main")
}

// HandleUserAPIKeyRevoke clears the stored key hash.
func HandleUserAPIKeyRevoke(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userID)
	if err != nil {
		flash.WithError(c, fiber.Map{"type": "error", "message": "User not found"})
		return c.Redirect("/")
	}

	user.APIKeyHash = ""
	user.APIKeyLastUsedAt = nil

	if err := repos.User.Update(user); err != nil {
		log.Errorf("[User] API key revoke for %d failed: %v", userID, err)
		flash.WithError(c, fiber.Map{"type": "error", "message": "Failed to revoke API key"})
		return c.Redirect("/user/profile")
	}

	flash.WithSuccess(c, fiber.Map{"type": "success", "message": "API key revoked"})
	return c.Redirect("/user/profile")
}

// userSummary is the shape the admin user list renders.
type userSummary struct {
	ID          uint
	Name        string
	Email       string
	Role        string
	Status      string
	AlertEmail  bool
	LastLoginAt *time.Time
}

func summarizeUsers(users []models.User) []userSummary {
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary{
			ID:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			Role:        u.Role,
			Status:      u.Status,
			AlertEmail:  u.AlertEmail,
			LastLoginAt: u.LastLoginAt,
		})
	}
	return out
}
