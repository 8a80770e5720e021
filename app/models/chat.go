package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession groups the messages of one assistant conversation. Sessions may
// belong to a guest (UserID null) until the visitor signs in.
type ChatSession struct {
	ID        string    `gorm:"primaryKey;type:char(36)" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Topic     string    `gorm:"type:varchar(20);default:'general'" json:"topic"` // general or mentalhealth
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when the caller did not supply one.
func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ChatLog stores one question/answer exchange of a session.
type ChatLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	SessionID string      `gorm:"type:char(36);index" json:"session_id"`
	Session   ChatSession `gorm:"foreignKey:SessionID" json:"-"`
	UserID    *uint       `gorm:"index" json:"user_id,omitempty"`
	Question  string      `gorm:"type:text" json:"question"`
	Response  string      `gorm:"type:longtext" json:"response"` // structured assistant reply as JSON
	CreatedAt time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

// GetOrCreateChatSession loads a session by id, creating it when missing so a
// client-generated session id keeps working across requests.
func GetOrCreateChatSession(db *gorm.DB, sessionID string, userID *uint, topic string) (*ChatSession, error) {
	if sessionID == "" {
		session := ChatSession{UserID: userID, Topic: topic}
		if err := db.Create(&session).Error; err != nil {
			return nil, err
		}
		return &session, nil
	}

	var session ChatSession
	if err := db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			session = ChatSession{ID: sessionID, UserID: userID, Topic: topic}
			if err := db.Create(&session).Error; err != nil {
				return nil, err
			}
			return &session, nil
		}
		return nil, err
	}
	return &session, nil
}

// RecentChatHistory returns up to limit exchanges of a session, oldest first.
func RecentChatHistory(db *gorm.DB, sessionID string, limit int) ([]ChatLog, error) {
	var logs []ChatLog
	err := db.Where("session_id = ?", sessionID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}
