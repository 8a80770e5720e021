package billing

import (
	"strings"

	"github.com/askdrhq/askdr/internal/pkg/entitlements"
)

// normalizePlan maps arbitrary provider-supplied tier strings to a known plan.
// Unknown values fall back to free so a bad webhook can never grant access.
func normalizePlan(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case string(entitlements.PlanPlus):
		return string(entitlements.PlanPlus)
	case string(entitlements.PlanPro):
		return string(entitlements.PlanPro)
	default:
		return string(entitlements.PlanFree)
	}
}

// planRank orders plans for comparisons; higher rank wins.
func planRank(p string) int {
	switch normalizePlan(p) {
	case string(entitlements.PlanPro):
		return 2
	case string(entitlements.PlanPlus):
		return 1
	default:
		return 0
	}
}

// isEntitlingStatus reports whether a subscription status grants the paid
// plan. Everything outside active/trialing drops the user to free.
func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return true
	default:
		return false
	}
}
