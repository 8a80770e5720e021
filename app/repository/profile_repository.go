package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
)

// profileRepository implements the ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new entitlement profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetOrCreate(userID uint) (*models.UserProfile, error) {
	return models.GetOrCreateUserProfile(r.db, userID)
}

func (r *profileRepository) GetByUserID(userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Save(profile *models.UserProfile) error {
	return r.db.Save(profile).Error
}

// ResetMonthlyUsage zeroes all four counters in one statement. The WHERE
// clause repeats the staleness check so two concurrent resets cannot both
// fire, and a reset never clobbers counters already current for this month.
// Any reset date outside the current month counts as stale, matching
// entitlements.NeedsMonthlyReset, so a bogus future date still converges.
func (r *profileRepository) ResetMonthlyUsage(userID uint, today time.Time) error {
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	nextMonthStart := monthStart.AddDate(0, 1, 0)
	return r.db.Model(&models.UserProfile{}).
		Where("user_id = ? AND (last_reset_date < ? OR last_reset_date >= ?)", userID, monthStart, nextMonthStart).
		Updates(map[string]interface{}{
			"monthly_symptom_checks_used":        0,
			"monthly_medication_questions_used":  0,
			"monthly_chat_messages_used":         0,
			"monthly_mentalhealth_messages_used": 0,
			"last_reset_date":                    today,
		}).Error
}

// RefundUsage hands a consumed unit back after a request failed post-gate.
// The counter guard keeps concurrent refunds from pushing below zero.
func (r *profileRepository) RefundUsage(userID uint, feature entitlements.Feature) error {
	column := entitlements.CounterColumn(feature)
	if column == "" {
		return fmt.Errorf("unknown feature %q", feature)
	}
	return r.db.Model(&models.UserProfile{}).
		Where("user_id = ? AND "+column+" > 0", userID).
		UpdateColumn(column, gorm.Expr(column+" - 1")).Error
}

// ConsumeIfBelow performs the check and the increment in one conditional
// UPDATE. RowsAffected == 0 means the quota was already exhausted.
func (r *profileRepository) ConsumeIfBelow(userID uint, feature entitlements.Feature, limit uint) (bool, error) {
	column := entitlements.CounterColumn(feature)
	if column == "" {
		return false, fmt.Errorf("unknown feature %q", feature)
	}
	tx := r.db.Model(&models.UserProfile{}).
		Where("user_id = ? AND "+column+" < ?", userID, limit).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
