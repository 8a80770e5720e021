package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/database"
	"github.com/askdrhq/askdr/internal/pkg/env"
	"github.com/askdrhq/askdr/internal/pkg/hcaptcha"
	"github.com/askdrhq/askdr/internal/pkg/session"
)

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and its free-plan profile.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	// Captcha is enforced only when a site key is configured.
	if env.GetEnv("HCAPTCHA_SITEKEY", "") != "" {
		valid, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !valid {
			if err != nil {
				log.Errorf("hCaptcha validation error: %v", err)
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha_failed", "message": "Captcha validation failed. Please try again."})
		}
	}

	user, err := models.CreateUser(req.Username, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := userRepo.GetByEmail(user.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken", "message": "An account with this email already exists"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Registration failed"})
	}

	if err := userRepo.Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Registration failed"})
	}

	// Create the entitlement profile eagerly so the first feature request
	// doesn't pay the creation cost.
	if _, err := repository.GetGlobalFactory().GetProfileRepository().GetOrCreate(user.ID); err != nil {
		log.Errorf("profile creation failed for user %d: %v", user.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Name,
		"email":    user.Email,
		"plan":     models.PlanFree,
	})
}

// HandleLogin authenticates with email and password and opens a session.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		// Deliberately vague: no detail on which part failed.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials", "message": "Email or password is incorrect"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account_inactive", "message": "This account is not active"})
	}

	if err := establishSession(c, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Login failed"})
	}

	database.GetDB().Model(user).Update("last_login_at", time.Now())

	profile, err := repository.GetGlobalFactory().GetProfileRepository().GetOrCreate(user.ID)
	plan := models.PlanFree
	if err == nil {
		plan = profile.Plan
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Name,
		"email":    user.Email,
		"is_admin": user.Role == models.ROLE_ADMIN,
		"plan":     plan,
	})
}

// HandleLogout destroys the current session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Errorf("session destroy failed: %v", err)
		}
	}
	c.Locals(FROM_PROTECTED, false)
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// establishSession writes the auth keys into a fresh session.
func establishSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_IS_ADMIN, user.Role == models.ROLE_ADMIN)
	return sess.Save()
}
