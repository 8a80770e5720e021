package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/app/repository"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	metrics "github.com/askdrhq/askdr/internal/pkg/metrics/counter"
	"github.com/askdrhq/askdr/internal/pkg/session"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
)

// Shared Locals/session keys used across controllers and middlewares
const (
	AUTH_KEY       string = "authenticated"
	USER_ID        string = "user_id"
	USER_NAME      string = "username"
	USER_IS_ADMIN  string = "isAdmin"
	FROM_PROTECTED string = "from_protected"
)

// timeNow is swapped out in tests that need a fixed clock.
var timeNow = time.Now

// meterOutcome is the quota decision for one metered request.
type meterOutcome struct {
	allowed bool
	limit   uint
	refund  func()
}

// meterAuthenticatedUse applies the monthly quota gate for an authenticated
// request. When a unit was consumed, the returned refund hands it back;
// callers invoke it if the request fails after the gate so an undelivered
// response never costs quota.
func meterAuthenticatedUse(repo repository.ProfileRepository, userID uint, feature entitlements.Feature) (meterOutcome, error) {
	profile, err := repo.GetOrCreate(userID)
	if err != nil {
		return meterOutcome{}, err
	}
	if err := ensureFreshCounters(repo, profile); err != nil {
		return meterOutcome{}, err
	}

	if profile.IsPaid() {
		return meterOutcome{allowed: true, refund: func() {}}, nil
	}

	limit := entitlements.MonthlyLimit(feature)
	consumed, err := repo.ConsumeIfBelow(userID, feature, limit)
	if err != nil {
		return meterOutcome{}, err
	}
	if !consumed {
		return meterOutcome{limit: limit}, nil
	}
	return meterOutcome{
		allowed: true,
		limit:   limit,
		refund: func() {
			if err := repo.RefundUsage(userID, feature); err != nil {
				log.Errorf("usage refund failed for user %d feature %s: %v", userID, feature, err)
			}
		},
	}, nil
}

// consumeFeatureOrReject runs the full entitlement gate for one metered
// request: guest sessions burn a per-session counter, free users consume
// their monthly quota atomically, paid users pass without metering. Returns
// false with the response already written when the request may not proceed.
// On success the refund func gives the consumed unit back; handlers call it
// when the AI dispatch fails so failed requests do not burn quota.
func consumeFeatureOrReject(c *fiber.Ctx, feature entitlements.Feature) (func(), bool) {
	userCtx := usercontext.GetUserContext(c)

	if !userCtx.IsLoggedIn {
		used := session.GetGuestUsage(c, string(feature))
		if used >= entitlements.GuestLimit {
			_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":         "unauthenticated_limit_reached",
				"message":       "You've used all free requests for this session. Sign in to continue.",
				"limit":         entitlements.GuestLimit,
				"used":          used,
				"requires_auth": true,
			})
			return nil, false
		}
		if _, err := session.IncrementGuestUsage(c, string(feature)); err != nil {
			log.Errorf("guest usage increment failed: %v", err)
		}
		recordFeatureUse(feature)
		return func() {
			if err := session.DecrementGuestUsage(c, string(feature)); err != nil {
				log.Debugf("guest usage refund failed: %v", err)
			}
		}, true
	}

	repo := repository.GetGlobalFactory().GetProfileRepository()
	outcome, err := meterAuthenticatedUse(repo, userCtx.UserID, feature)
	if err != nil {
		log.Errorf("entitlement gate failed for user %d feature %s: %v", userCtx.UserID, feature, err)
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Failed to record usage",
		})
		return nil, false
	}
	if !outcome.allowed {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":            "authenticated_limit_reached",
			"message":          "You've used all your monthly requests. Upgrade to continue.",
			"limit":            outcome.limit,
			"used":             outcome.limit,
			"requires_upgrade": true,
		})
		return nil, false
	}
	recordFeatureUse(feature)
	return outcome.refund, true
}

// ensureFreshCounters applies the lazy monthly reset and reloads the profile
// when a reset actually happened.
func ensureFreshCounters(repo repository.ProfileRepository, profile *models.UserProfile) error {
	now := timeNow()
	if !entitlements.NeedsMonthlyReset(profile, now) {
		return nil
	}
	if err := repo.ResetMonthlyUsage(profile.UserID, now); err != nil {
		return err
	}
	fresh, err := repo.GetByUserID(profile.UserID)
	if err != nil {
		return err
	}
	*profile = *fresh
	return nil
}

func recordFeatureUse(feature entitlements.Feature) {
	if err := metrics.AddFeatureUse(string(feature)); err != nil {
		log.Debugf("feature counter increment failed: %v", err)
	}
}
