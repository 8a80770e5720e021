package entitlements

import (
	"strings"
	"time"

	"github.com/askdrhq/askdr/app/models"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPlus Plan = "plus"
	PlanPro  Plan = "pro"
)

// Feature is the closed set of metered features. Anything outside this set
// has no access path; ParseFeature fails closed.
type Feature string

const (
	FeatureSymptomCheck Feature = "symptom_check"
	FeatureMedicationQA Feature = "medication_qa"
	FeatureChat         Feature = "chat"
	FeatureMentalHealth Feature = "mentalhealth"
)

// Monthly quota per feature on the free plan. Paid plans are unmetered.
const (
	FreeSymptomCheckLimit = 5
	FreeMedicationQALimit = 10
	FreeChatLimit         = 10
	FreeMentalHealthLimit = 10
)

// GuestLimit is the per-session ceiling for unauthenticated callers.
const GuestLimit = 5

// ParseFeature maps a request-supplied feature name to the closed enum.
// Unknown names return false so callers deny access instead of guessing.
func ParseFeature(name string) (Feature, bool) {
	switch Feature(strings.ToLower(strings.TrimSpace(name))) {
	case FeatureSymptomCheck:
		return FeatureSymptomCheck, true
	case FeatureMedicationQA:
		return FeatureMedicationQA, true
	case FeatureChat:
		return FeatureChat, true
	case FeatureMentalHealth:
		return FeatureMentalHealth, true
	default:
		return "", false
	}
}

// Features lists all metered features.
func Features() []Feature {
	return []Feature{FeatureSymptomCheck, FeatureMedicationQA, FeatureChat, FeatureMentalHealth}
}

// MonthlyLimit returns the free-plan quota for a feature.
func MonthlyLimit(f Feature) uint {
	switch f {
	case FeatureSymptomCheck:
		return FreeSymptomCheckLimit
	case FeatureMedicationQA:
		return FreeMedicationQALimit
	case FeatureChat:
		return FreeChatLimit
	case FeatureMentalHealth:
		return FreeMentalHealthLimit
	}
	return 0
}

// UsageFor reads the profile counter backing a feature.
func UsageFor(p *models.UserProfile, f Feature) uint {
	switch f {
	case FeatureSymptomCheck:
		return p.MonthlySymptomChecksUsed
	case FeatureMedicationQA:
		return p.MonthlyMedicationQuestionsUsed
	case FeatureChat:
		return p.MonthlyChatMessagesUsed
	case FeatureMentalHealth:
		return p.MonthlyMentalhealthMessagesUsed
	}
	return 0
}

// CounterColumn returns the profile column holding a feature's usage counter.
// Repositories use it for atomic single-statement increments.
func CounterColumn(f Feature) string {
	switch f {
	case FeatureSymptomCheck:
		return "monthly_symptom_checks_used"
	case FeatureMedicationQA:
		return "monthly_medication_questions_used"
	case FeatureChat:
		return "monthly_chat_messages_used"
	case FeatureMentalHealth:
		return "monthly_mentalhealth_messages_used"
	}
	return ""
}

// NeedsMonthlyReset reports whether the counters belong to an earlier
// month/year than today and must be zeroed before any read.
func NeedsMonthlyReset(p *models.UserProfile, today time.Time) bool {
	return p.LastResetDate.Month() != today.Month() || p.LastResetDate.Year() != today.Year()
}

// ApplyMonthlyReset zeroes all counters on the in-memory profile and stamps
// the reset date. The caller persists the change. Idempotent within a month.
func ApplyMonthlyReset(p *models.UserProfile, today time.Time) bool {
	if !NeedsMonthlyReset(p, today) {
		return false
	}
	p.MonthlySymptomChecksUsed = 0
	p.MonthlyMedicationQuestionsUsed = 0
	p.MonthlyChatMessagesUsed = 0
	p.MonthlyMentalhealthMessagesUsed = 0
	p.LastResetDate = today
	return true
}

// CanUseFeature reports feature access for a profile whose counters are
// already current for this month. Paid plans are always allowed.
func CanUseFeature(p *models.UserProfile, f Feature) bool {
	if p.IsPaid() {
		return true
	}
	return UsageFor(p, f) < MonthlyLimit(f)
}

// CanUseReminders is a pure tier gate; reminders carry no quota.
func CanUseReminders(p *models.UserProfile) bool {
	return p.IsPaid()
}

// AccessStatus is the structured answer to an entitlement check. Quota
// exhaustion is a denial with usage context, never an error.
type AccessStatus struct {
	HasAccess bool   `json:"has_access"`
	Used      uint   `json:"used"`
	Allowed   uint   `json:"allowed"`
	Unlimited bool   `json:"is_unlimited"`
	Plan      string `json:"plan"`
}

// CheckAccess evaluates feature access and reports current usage against the
// limit so callers can render an upgrade prompt on denial.
func CheckAccess(p *models.UserProfile, f Feature) AccessStatus {
	if p.IsPaid() {
		return AccessStatus{
			HasAccess: true,
			Used:      UsageFor(p, f),
			Allowed:   MonthlyLimit(f),
			Unlimited: true,
			Plan:      p.Plan,
		}
	}
	used := UsageFor(p, f)
	limit := MonthlyLimit(f)
	return AccessStatus{
		HasAccess: used < limit,
		Used:      used,
		Allowed:   limit,
		Unlimited: false,
		Plan:      p.Plan,
	}
}
