package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/askdrhq/askdr/app/models"
)

// therapistRepository implements the TherapistRepository interface
type therapistRepository struct {
	db *gorm.DB
}

// NewTherapistRepository creates a new therapist repository instance
func NewTherapistRepository(db *gorm.DB) TherapistRepository {
	return &therapistRepository{db: db}
}

// Create adds a therapist to the directory
func (r *therapistRepository) Create(t *models.Therapist) error {
	return r.db.Create(t).Error
}

// GetByID retrieves a therapist by ID
func (r *therapistRepository) GetByID(id uint) (*models.Therapist, error) {
	var t models.Therapist
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns directory entries matching the filter
func (r *therapistRepository) List(filter TherapistFilter) ([]models.Therapist, error) {
	q := r.db.Model(&models.Therapist{})
	if s := strings.TrimSpace(filter.Specialty); s != "" {
		q = q.Where("specialty LIKE ?", "%"+s+"%")
	}
	if l := strings.TrimSpace(filter.Location); l != "" {
		q = q.Where("location LIKE ?", "%"+l+"%")
	}
	if filter.Verified != nil {
		q = q.Where("verified = ?", *filter.Verified)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var therapists []models.Therapist
	err := q.Order("name ASC").Limit(limit).Find(&therapists).Error
	return therapists, err
}

// Count returns the total number of directory entries
func (r *therapistRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Therapist{}).Count(&count).Error
	return count, err
}
