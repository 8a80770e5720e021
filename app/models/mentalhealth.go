package models

import (
	"time"

	"gorm.io/gorm"
)

// JournalEntry is a free-text mental health journal entry.
type JournalEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index" json:"user_id"`
	Content   string         `gorm:"type:text" json:"content"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MoodLog records a 1-5 mood rating for one day.
type MoodLog struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"index" json:"user_id"`
	Mood     int       `gorm:"not null" json:"mood" validate:"min=1,max=5"`
	LoggedAt time.Time `gorm:"type:date;autoCreateTime" json:"logged_at"`
}

// Therapist is a directory entry shown by the therapist-connect feature.
type Therapist struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100)" json:"name"`
	Specialty    string    `gorm:"type:varchar(100)" json:"specialty"`
	Rating       float64   `json:"rating"`
	Reviews      int       `json:"reviews"`
	Location     string    `gorm:"type:varchar(100)" json:"location"`
	Distance     string    `gorm:"type:varchar(50)" json:"distance"`
	Price        string    `gorm:"type:varchar(50)" json:"price"`
	Availability string    `gorm:"type:varchar(100)" json:"availability"`
	ImageURL     string    `gorm:"type:varchar(255)" json:"image"`
	Verified     bool      `gorm:"default:false" json:"verified"`
	Languages    string    `gorm:"type:text" json:"languages"`  // JSON array
	Approaches   string    `gorm:"type:text" json:"approaches"` // JSON array
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
