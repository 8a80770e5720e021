package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ReminderTypeMedication  = "medication"
	ReminderTypeAppointment = "appointment"
)

const (
	FrequencyOnce    = "once"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Reminder is a user-owned scheduled notification with a recurrence rule.
// NextTrigger starts at StartTime and is advanced by the scheduler after each
// dispatched occurrence; EmailSent marks the current occurrence as notified so
// a scan never dispatches it twice.
type Reminder struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"index" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
	ReminderType string         `gorm:"type:varchar(20)" json:"reminder_type" validate:"oneof=medication appointment"`
	Title        string         `gorm:"type:varchar(100)" json:"title" validate:"required,max=100"`
	Notes        string         `gorm:"type:text" json:"notes"`
	StartTime    time.Time      `json:"start_time" validate:"required"`
	Frequency    string         `gorm:"type:varchar(20)" json:"frequency" validate:"oneof=once daily weekly monthly"`
	NextTrigger  time.Time      `gorm:"index:idx_reminders_due,priority:3" json:"next_trigger"`
	EmailSent    bool           `gorm:"default:false;index:idx_reminders_due,priority:2" json:"email_sent"`
	IsActive     bool           `gorm:"default:true;index:idx_reminders_due,priority:1" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Reminder) Validate() error {
	v := validator.New()

	return v.Struct(r)
}

// IsRecurring reports whether the reminder repeats after triggering.
func (r *Reminder) IsRecurring() bool {
	return r.Frequency != FrequencyOnce
}

// NextOccurrence returns the trigger instant that follows from. The second
// return value is false for one-time reminders, which have no next occurrence.
// Monthly uses a fixed 30-day offset rather than calendar-month arithmetic.
func (r *Reminder) NextOccurrence(from time.Time) (time.Time, bool) {
	switch r.Frequency {
	case FrequencyDaily:
		return from.Add(24 * time.Hour), true
	case FrequencyWeekly:
		return from.Add(7 * 24 * time.Hour), true
	case FrequencyMonthly:
		return from.Add(30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}
