package session

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Guest usage counters live in the redis-backed session, keyed per feature.
// They cap what an unauthenticated visitor can consume before signing in.

func guestUsageKey(feature string) string {
	return "guest_usage:" + feature
}

// GetGuestUsage returns how often a guest session has used a feature.
func GetGuestUsage(c *fiber.Ctx, feature string) int {
	raw := GetSessionValue(c, guestUsageKey(feature))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// IncrementGuestUsage bumps the guest counter and returns the new value.
func IncrementGuestUsage(c *fiber.Ctx, feature string) (int, error) {
	n := GetGuestUsage(c, feature) + 1
	if err := SetSessionValue(c, guestUsageKey(feature), strconv.Itoa(n)); err != nil {
		return 0, err
	}
	return n, nil
}

// DecrementGuestUsage hands a guest unit back after a failed request.
func DecrementGuestUsage(c *fiber.Ctx, feature string) error {
	n := GetGuestUsage(c, feature)
	if n <= 0 {
		return nil
	}
	return SetSessionValue(c, guestUsageKey(feature), strconv.Itoa(n-1))
}
