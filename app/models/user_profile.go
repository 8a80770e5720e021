package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription plan tiers. Free is metered; Plus and Pro are unlimited.
const (
	PlanFree = "free"
	PlanPlus = "plus"
	PlanPro  = "pro"
)

// UserProfile stores the subscription plan, Stripe linkage and the monthly
// usage counters for the metered features. One row per user, created lazily
// on the first entitlement check or billing action.
type UserProfile struct {
	ID                              uint           `gorm:"primaryKey" json:"id"`
	UserID                          uint           `gorm:"uniqueIndex" json:"user_id"`
	Plan                            string         `gorm:"type:varchar(10);default:'free'" json:"plan"`
	StripeCustomerID                string         `gorm:"type:varchar(100);default:null;index" json:"-"`
	StripeSubscriptionID            string         `gorm:"type:varchar(100);default:null" json:"-"`
	MonthlySymptomChecksUsed        uint           `gorm:"default:0" json:"monthly_symptom_checks_used"`
	MonthlyMedicationQuestionsUsed  uint           `gorm:"default:0" json:"monthly_medication_questions_used"`
	MonthlyChatMessagesUsed         uint           `gorm:"default:0" json:"monthly_chat_messages_used"`
	MonthlyMentalhealthMessagesUsed uint           `gorm:"default:0" json:"monthly_mentalhealth_messages_used"`
	LastResetDate                   time.Time      `gorm:"type:date" json:"last_reset_date"`
	CreatedAt                       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt                       gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetOrCreateUserProfile returns the profile for a user, creating a default
// free-plan row if none exists yet.
func GetOrCreateUserProfile(db *gorm.DB, userID uint) (*UserProfile, error) {
	var profile UserProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			profile = UserProfile{UserID: userID, Plan: PlanFree, LastResetDate: time.Now()}
			if err := db.Create(&profile).Error; err != nil {
				return nil, err
			}
			return &profile, nil
		}
		return nil, err
	}
	return &profile, nil
}

// IsPaid reports whether the profile is on a paid tier.
func (p *UserProfile) IsPaid() bool {
	return p.Plan == PlanPlus || p.Plan == PlanPro
}

// HasSubscription reports whether a Stripe subscription is linked.
func (p *UserProfile) HasSubscription() bool {
	return p.StripeSubscriptionID != ""
}
