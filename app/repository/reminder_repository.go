package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
)

// reminderRepository implements the ReminderRepository interface
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder repository instance
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// Create creates a new reminder in the database
func (r *reminderRepository) Create(reminder *models.Reminder) error {
	return r.db.Create(reminder).Error
}

// GetByID retrieves a reminder by its ID
func (r *reminderRepository) GetByID(id uint) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.First(&reminder, id).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// GetByIDForUser retrieves a reminder scoped to its owner
func (r *reminderRepository) GetByIDForUser(id, userID uint) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// ListByUser returns all reminders owned by a user, soonest trigger first
func (r *reminderRepository) ListByUser(userID uint) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.Where("user_id = ?", userID).Order("next_trigger ASC").Find(&reminders).Error
	return reminders, err
}

// Update updates an existing reminder
func (r *reminderRepository) Update(reminder *models.Reminder) error {
	return r.db.Save(reminder).Error
}

// Delete retires a reminder scoped to its owner. The row is flipped inactive
// rather than removed, so it drops out of the due-scan but stays inspectable.
func (r *reminderRepository) Delete(id, userID uint) error {
	tx := r.db.Model(&models.Reminder{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Update("is_active", false)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Due returns active unclaimed reminders whose trigger time has passed.
func (r *reminderRepository) Due(now time.Time, limit int) ([]models.Reminder, error) {
	var reminders []models.Reminder
	q := r.db.Where("is_active = ? AND email_sent = ? AND next_trigger <= ?", true, false, now).
		Order("next_trigger ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&reminders).Error
	return reminders, err
}

// Claim flips email_sent from false to true in one conditional UPDATE.
// RowsAffected tells the caller whether it won the claim; a second scanner
// racing on the same row sees zero rows and skips it.
func (r *reminderRepository) Claim(id uint) (bool, error) {
	tx := r.db.Model(&models.Reminder{}).
		Where("id = ? AND is_active = ? AND email_sent = ?", id, true, false).
		UpdateColumn("email_sent", true)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ReleaseClaim clears the claim after a failed dispatch. The reminder's
// next_trigger is still in the past, so the next scan picks it up again.
func (r *reminderRepository) ReleaseClaim(id uint) error {
	return r.db.Model(&models.Reminder{}).
		Where("id = ?", id).
		UpdateColumn("email_sent", false).Error
}

// Advance schedules the next occurrence and clears the claim in one UPDATE.
func (r *reminderRepository) Advance(id uint, next time.Time) error {
	return r.db.Model(&models.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_trigger": next,
			"email_sent":   false,
		}).Error
}

// Retire deactivates a one-shot reminder. email_sent stays true so the row
// records that its single occurrence was delivered.
func (r *reminderRepository) Retire(id uint) error {
	return r.db.Model(&models.Reminder{}).
		Where("id = ?", id).
		UpdateColumn("is_active", false).Error
}
