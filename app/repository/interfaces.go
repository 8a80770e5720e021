package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByEmailChangeToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// ProfileRepository defines entitlement-profile operations. Counter writes
// are single UPDATE statements so concurrent requests never lose increments.
type ProfileRepository interface {
	GetOrCreate(userID uint) (*models.UserProfile, error)
	GetByUserID(userID uint) (*models.UserProfile, error)
	Save(profile *models.UserProfile) error
	// ResetMonthlyUsage zeroes all counters and stamps today, but only when
	// the stored reset date still belongs to an earlier month. Safe to call
	// from concurrent requests.
	ResetMonthlyUsage(userID uint, today time.Time) error
	// ConsumeIfBelow adds one to a feature counter only while it is under
	// limit, reporting whether the increment happened.
	ConsumeIfBelow(userID uint, feature entitlements.Feature, limit uint) (bool, error)
	// RefundUsage subtracts one from a feature counter, never below zero.
	// Used when a request fails after its unit was consumed.
	RefundUsage(userID uint, feature entitlements.Feature) error
}

// ReminderRepository defines reminder CRUD plus the scheduler's due-scan and
// claim operations.
type ReminderRepository interface {
	Create(reminder *models.Reminder) error
	GetByID(id uint) (*models.Reminder, error)
	GetByIDForUser(id, userID uint) (*models.Reminder, error)
	ListByUser(userID uint) ([]models.Reminder, error)
	Update(reminder *models.Reminder) error
	// Delete retires a reminder by setting is_active to false; the row is
	// kept.
	Delete(id, userID uint) error
	// Due returns active unclaimed reminders whose trigger time has passed.
	Due(now time.Time, limit int) ([]models.Reminder, error)
	// Claim marks a due reminder as being dispatched. Exactly one of several
	// concurrent claimers wins.
	Claim(id uint) (bool, error)
	// ReleaseClaim undoes a claim after a failed dispatch so the next scan
	// retries the reminder.
	ReleaseClaim(id uint) error
	// Advance moves a recurring reminder to its next occurrence and clears
	// the claim.
	Advance(id uint, next time.Time) error
	// Retire deactivates a one-shot reminder after dispatch.
	Retire(id uint) error
}

// TherapistRepository defines read access to the therapist directory.
type TherapistRepository interface {
	Create(t *models.Therapist) error
	GetByID(id uint) (*models.Therapist, error)
	List(filter TherapistFilter) ([]models.Therapist, error)
	Count() (int64, error)
}

// TherapistFilter narrows directory listings.
type TherapistFilter struct {
	Specialty string
	Location  string
	Verified  *bool
	Offset    int
	Limit     int
}

// Repositories struct holds all repository instances
type Repositories struct {
	User      UserRepository
	Profile   ProfileRepository
	Reminder  ReminderRepository
	Therapist TherapistRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Profile:   NewProfileRepository(db),
		Reminder:  NewReminderRepository(db),
		Therapist: NewTherapistRepository(db),
	}
}
