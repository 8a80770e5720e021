package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/askdrhq/askdr/app/models"
)

func TestParseFeature(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Feature
		ok    bool
	}{
		{"symptom check", "symptom_check", FeatureSymptomCheck, true},
		{"medication", "medication_qa", FeatureMedicationQA, true},
		{"chat", "chat", FeatureChat, true},
		{"mental health", "mentalhealth", FeatureMentalHealth, true},
		{"uppercase is normalized", "CHAT", FeatureChat, true},
		{"surrounding whitespace", "  symptom_check ", FeatureSymptomCheck, true},
		{"unknown fails closed", "imaging", "", false},
		{"empty fails closed", "", "", false},
		{"near miss fails closed", "chats", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFeature(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonthlyLimit(t *testing.T) {
	assert.Equal(t, uint(5), MonthlyLimit(FeatureSymptomCheck))
	assert.Equal(t, uint(10), MonthlyLimit(FeatureMedicationQA))
	assert.Equal(t, uint(10), MonthlyLimit(FeatureChat))
	assert.Equal(t, uint(10), MonthlyLimit(FeatureMentalHealth))
}

func TestNeedsMonthlyReset(t *testing.T) {
	today := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		lastReset time.Time
		want      bool
	}{
		{"same month no reset", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), false},
		{"same day no reset", today, false},
		{"previous month", time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), true},
		{"same month previous year", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), true},
		{"several months stale", time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC), true},
		// A bogus future-dated reset is out-of-month and must be repaired
		// too; the repository's SQL guard applies the same rule.
		{"future month", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), true},
		{"future year", time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.UserProfile{LastResetDate: tt.lastReset}
			assert.Equal(t, tt.want, NeedsMonthlyReset(p, today))
		})
	}
}

func TestApplyMonthlyReset(t *testing.T) {
	today := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)

	p := &models.UserProfile{
		Plan:                            models.PlanFree,
		MonthlySymptomChecksUsed:        5,
		MonthlyMedicationQuestionsUsed:  10,
		MonthlyChatMessagesUsed:         7,
		MonthlyMentalhealthMessagesUsed: 3,
		LastResetDate:                   time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, ApplyMonthlyReset(p, today))
	assert.Equal(t, uint(0), p.MonthlySymptomChecksUsed)
	assert.Equal(t, uint(0), p.MonthlyMedicationQuestionsUsed)
	assert.Equal(t, uint(0), p.MonthlyChatMessagesUsed)
	assert.Equal(t, uint(0), p.MonthlyMentalhealthMessagesUsed)
	assert.Equal(t, today, p.LastResetDate)

	// A second reset in the same month is a no-op.
	p.MonthlyChatMessagesUsed = 4
	assert.False(t, ApplyMonthlyReset(p, today.Add(48*time.Hour)))
	assert.Equal(t, uint(4), p.MonthlyChatMessagesUsed)
}

func TestCanUseFeature(t *testing.T) {
	tests := []struct {
		name string
		plan string
		used uint
		feat Feature
		want bool
	}{
		{"free under limit", models.PlanFree, 4, FeatureSymptomCheck, true},
		{"free at limit", models.PlanFree, 5, FeatureSymptomCheck, false},
		{"free over limit", models.PlanFree, 6, FeatureSymptomCheck, false},
		{"free chat under limit", models.PlanFree, 9, FeatureChat, true},
		{"free chat at limit", models.PlanFree, 10, FeatureChat, false},
		{"plus ignores counters", models.PlanPlus, 999, FeatureChat, true},
		{"pro ignores counters", models.PlanPro, 999, FeatureMentalHealth, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.UserProfile{Plan: tt.plan}
			switch tt.feat {
			case FeatureSymptomCheck:
				p.MonthlySymptomChecksUsed = tt.used
			case FeatureMedicationQA:
				p.MonthlyMedicationQuestionsUsed = tt.used
			case FeatureChat:
				p.MonthlyChatMessagesUsed = tt.used
			case FeatureMentalHealth:
				p.MonthlyMentalhealthMessagesUsed = tt.used
			}
			assert.Equal(t, tt.want, CanUseFeature(p, tt.feat))
		})
	}
}

func TestCheckAccess_FreePlan(t *testing.T) {
	p := &models.UserProfile{Plan: models.PlanFree, MonthlyMedicationQuestionsUsed: 10}

	status := CheckAccess(p, FeatureMedicationQA)
	assert.False(t, status.HasAccess)
	assert.Equal(t, uint(10), status.Used)
	assert.Equal(t, uint(10), status.Allowed)
	assert.False(t, status.Unlimited)
	assert.Equal(t, models.PlanFree, status.Plan)

	p.MonthlyMedicationQuestionsUsed = 2
	status = CheckAccess(p, FeatureMedicationQA)
	assert.True(t, status.HasAccess)
	assert.Equal(t, uint(2), status.Used)
}

func TestCheckAccess_PaidPlan(t *testing.T) {
	p := &models.UserProfile{Plan: models.PlanPro, MonthlyChatMessagesUsed: 500}

	status := CheckAccess(p, FeatureChat)
	assert.True(t, status.HasAccess)
	assert.True(t, status.Unlimited)
	assert.Equal(t, uint(500), status.Used)
	assert.Equal(t, models.PlanPro, status.Plan)
}

func TestCanUseReminders(t *testing.T) {
	assert.False(t, CanUseReminders(&models.UserProfile{Plan: models.PlanFree}))
	assert.True(t, CanUseReminders(&models.UserProfile{Plan: models.PlanPlus}))
	assert.True(t, CanUseReminders(&models.UserProfile{Plan: models.PlanPro}))
}

func TestCounterColumn(t *testing.T) {
	for _, f := range Features() {
		assert.NotEmpty(t, CounterColumn(f))
	}
	assert.Empty(t, CounterColumn(Feature("bogus")))
}
