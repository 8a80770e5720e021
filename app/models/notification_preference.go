package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationPreference stores per-user delivery toggles. Reminder dispatch
// checks EmailNotifications plus the toggle matching the reminder type.
type NotificationPreference struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"uniqueIndex" json:"user_id"`
	EmailNotifications   bool      `gorm:"default:true" json:"email_notifications"`
	PushNotifications    bool      `gorm:"default:true" json:"push_notifications"`
	MedicationReminders  bool      `gorm:"default:true" json:"medication_reminders"`
	AppointmentReminders bool      `gorm:"default:true" json:"appointment_reminders"`
	HealthTips           bool      `gorm:"default:true" json:"health_tips"`
	WeeklyReports        bool      `gorm:"default:true" json:"weekly_reports"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetOrCreateNotificationPreference returns existing preferences or creates
// the all-enabled defaults.
func GetOrCreateNotificationPreference(db *gorm.DB, userID uint) (*NotificationPreference, error) {
	var pref NotificationPreference
	if err := db.Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			pref = NotificationPreference{
				UserID:               userID,
				EmailNotifications:   true,
				PushNotifications:    true,
				MedicationReminders:  true,
				AppointmentReminders: true,
				HealthTips:           true,
				WeeklyReports:        true,
			}
			if err := db.Create(&pref).Error; err != nil {
				return nil, err
			}
			return &pref, nil
		}
		return nil, err
	}
	return &pref, nil
}

// AllowsReminder reports whether email dispatch is enabled for a reminder type.
func (p *NotificationPreference) AllowsReminder(reminderType string) bool {
	if !p.EmailNotifications {
		return false
	}
	switch reminderType {
	case ReminderTypeMedication:
		return p.MedicationReminders
	case ReminderTypeAppointment:
		return p.AppointmentReminders
	default:
		return true
	}
}
