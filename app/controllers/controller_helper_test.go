package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
)

// fakeProfileRepo keeps one profile in memory and mirrors the conditional
// counter semantics of the SQL-backed repository.
type fakeProfileRepo struct {
	profile  *models.UserProfile
	resets   int
	consumes int
	refunds  int
}

func (f *fakeProfileRepo) GetOrCreate(userID uint) (*models.UserProfile, error) {
	p := *f.profile
	return &p, nil
}

func (f *fakeProfileRepo) GetByUserID(userID uint) (*models.UserProfile, error) {
	p := *f.profile
	return &p, nil
}

func (f *fakeProfileRepo) Save(profile *models.UserProfile) error {
	p := *profile
	f.profile = &p
	return nil
}

func (f *fakeProfileRepo) ResetMonthlyUsage(userID uint, today time.Time) error {
	f.resets++
	f.profile.MonthlySymptomChecksUsed = 0
	f.profile.MonthlyMedicationQuestionsUsed = 0
	f.profile.MonthlyChatMessagesUsed = 0
	f.profile.MonthlyMentalhealthMessagesUsed = 0
	f.profile.LastResetDate = today
	return nil
}

func (f *fakeProfileRepo) ConsumeIfBelow(userID uint, feature entitlements.Feature, limit uint) (bool, error) {
	f.consumes++
	if f.profile.MonthlySymptomChecksUsed >= limit {
		return false, nil
	}
	f.profile.MonthlySymptomChecksUsed++
	return true, nil
}

func (f *fakeProfileRepo) RefundUsage(userID uint, feature entitlements.Feature) error {
	f.refunds++
	if f.profile.MonthlySymptomChecksUsed > 0 {
		f.profile.MonthlySymptomChecksUsed--
	}
	return nil
}

func freshProfile(plan string, used uint) *models.UserProfile {
	return &models.UserProfile{
		UserID:                   1,
		Plan:                     plan,
		MonthlySymptomChecksUsed: used,
		LastResetDate:            time.Now(),
	}
}

func TestMeterAuthenticatedUse_PaidPlanUnmetered(t *testing.T) {
	repo := &fakeProfileRepo{profile: freshProfile(models.PlanPlus, 0)}

	outcome, err := meterAuthenticatedUse(repo, 1, entitlements.FeatureSymptomCheck)
	require.NoError(t, err)

	assert.True(t, outcome.allowed)
	assert.Equal(t, 0, repo.consumes)

	// Refund on a paid plan is a no-op; no counter was touched.
	outcome.refund()
	assert.Equal(t, 0, repo.refunds)
}

func TestMeterAuthenticatedUse_FreeConsumesAndRefundsOnFailure(t *testing.T) {
	repo := &fakeProfileRepo{profile: freshProfile(models.PlanFree, 4)}

	outcome, err := meterAuthenticatedUse(repo, 1, entitlements.FeatureSymptomCheck)
	require.NoError(t, err)

	require.True(t, outcome.allowed)
	assert.Equal(t, uint(5), repo.profile.MonthlySymptomChecksUsed)

	// An upstream failure after the gate hands the unit back, so the user
	// does not lose quota for a response that was never delivered.
	outcome.refund()
	assert.Equal(t, 1, repo.refunds)
	assert.Equal(t, uint(4), repo.profile.MonthlySymptomChecksUsed)
	assert.True(t, entitlements.CanUseFeature(repo.profile, entitlements.FeatureSymptomCheck))
}

func TestMeterAuthenticatedUse_FreeAtLimitDenied(t *testing.T) {
	repo := &fakeProfileRepo{profile: freshProfile(models.PlanFree, 5)}

	outcome, err := meterAuthenticatedUse(repo, 1, entitlements.FeatureSymptomCheck)
	require.NoError(t, err)

	assert.False(t, outcome.allowed)
	assert.Equal(t, uint(5), outcome.limit)
	assert.Equal(t, uint(5), repo.profile.MonthlySymptomChecksUsed)
}

func TestMeterAuthenticatedUse_StaleCountersResetFirst(t *testing.T) {
	profile := freshProfile(models.PlanFree, 5)
	profile.LastResetDate = time.Now().AddDate(0, -1, 0)
	repo := &fakeProfileRepo{profile: profile}

	outcome, err := meterAuthenticatedUse(repo, 1, entitlements.FeatureSymptomCheck)
	require.NoError(t, err)

	// Last month's exhausted counters are zeroed before the gate, so the
	// first request of a new month goes through.
	assert.Equal(t, 1, repo.resets)
	assert.True(t, outcome.allowed)
	assert.Equal(t, uint(1), repo.profile.MonthlySymptomChecksUsed)
}
