package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	"github.com/askdrhq/askdr/internal/pkg/env"
	"github.com/askdrhq/askdr/internal/pkg/mail"
	"github.com/askdrhq/askdr/internal/pkg/session"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
	"github.com/askdrhq/askdr/internal/pkg/utils"
)

// HandleGetAccount returns the user's account, plan and current usage.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
	}
	profile, err := repos.Profile.GetOrCreate(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load profile"})
	}
	if err := ensureFreshCounters(repos.Profile, profile); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to refresh usage"})
	}

	usage := fiber.Map{}
	for _, feature := range entitlements.Features() {
		usage[string(feature)] = fiber.Map{
			"used":  entitlements.UsageFor(profile, feature),
			"limit": entitlements.MonthlyLimit(feature),
		}
	}

	return c.JSON(fiber.Map{
		"id":                   user.ID,
		"name":                 user.Name,
		"email":                user.Email,
		"avatar":               utils.GetGravatarURL(user.Email, 200),
		"plan":                 profile.Plan,
		"is_paid":              profile.IsPaid(),
		"pending_email_change": user.HasPendingEmailChange(),
		"usage":                usage,
		"created_at":           user.CreatedAt,
	})
}

type updateAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleUpdateAccount updates the display name and starts the email change
// flow when a new address is supplied. The address only switches after the
// verification link is opened.
func HandleUpdateAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
	}

	var req updateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}

	emailChangeRequested := false
	newEmail := strings.ToLower(strings.TrimSpace(req.Email))
	if newEmail != "" && newEmail != strings.ToLower(user.Email) {
		if existing, err := repos.User.GetByEmail(newEmail); err == nil && existing != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken", "message": "This email address is already in use"})
		}
		user.PendingEmail = newEmail
		if err := user.GenerateEmailChangeToken(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to start email change"})
		}
		emailChangeRequested = true
	}

	if err := user.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid account data: " + err.Error()})
	}
	if err := repos.User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update account"})
	}

	if emailChangeRequested {
		sendEmailChangeVerification(c, user)
	}

	return c.JSON(fiber.Map{
		"message":              "Account updated",
		"pending_email_change": user.HasPendingEmailChange(),
	})
}

func sendEmailChangeVerification(c *fiber.Ctx, user *models.User) {
	baseURL := env.GetEnv("PUBLIC_URL", c.BaseURL())
	link := fmt.Sprintf("%s/api/v1/user/confirm-email?token=%s", baseURL, user.EmailChangeToken)
	body := fmt.Sprintf("Hi %s,<br><br>Please confirm your new email address by opening this link:<br><a href=\"%s\">%s</a><br><br>The link expires in 24 hours.", user.Name, link, link)
	if err := mail.SendMail(user.PendingEmail, "Confirm your new email address", body); err != nil {
		log.Errorf("email change verification mail failed for user %d: %v", user.ID, err)
	}
}

// HandleConfirmEmailChange finishes the email change flow from the mailed
// verification link.
func HandleConfirmEmailChange(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing token"})
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByEmailChangeToken(token)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Invalid or expired token"})
	}
	if !user.IsEmailChangeTokenValid(token) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token_expired", "message": "The verification link has expired"})
	}

	user.Email = user.PendingEmail
	user.ClearEmailChangeRequest()
	if err := repos.User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update email"})
	}

	return c.JSON(fiber.Map{"message": "Email address updated"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword replaces the password after checking the current one.
func HandleChangePassword(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if len(req.NewPassword) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Password must be at least 6 characters"})
	}

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid_password", "message": "Current password is incorrect"})
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update password"})
	}
	if err := repos.User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update password"})
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// HandleDeleteAccount removes the account after a password confirmation and
// destroys the session.
func HandleDeleteAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	var req deleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
	}
	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid_password", "message": "Password is incorrect"})
	}

	if err := repos.User.Delete(user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete account"})
	}

	if sess, err := session.GetSessionStore().Get(c); err == nil {
		if err := sess.Destroy(); err != nil {
			log.Errorf("session destroy failed after account deletion: %v", err)
		}
	}

	return c.JSON(fiber.Map{"message": "Account deleted"})
}
