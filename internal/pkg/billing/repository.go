package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/askdrhq/askdr/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetOrCreateProfile(userID uint) (*models.UserProfile, error)
	GetProfileByCustomerID(customerID string) (*models.UserProfile, error)
	SaveProfile(p *models.UserProfile) error
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetOrCreateProfile(userID uint) (*models.UserProfile, error) {
	return models.GetOrCreateUserProfile(r.db, userID)
}

func (r *gormRepository) GetProfileByCustomerID(customerID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) SaveProfile(p *models.UserProfile) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
