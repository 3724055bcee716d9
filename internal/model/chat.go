package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage rows are append-only; only the is_read flag changes after
// creation, and only when the receiver fetches the conversation.
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"timestamp"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
