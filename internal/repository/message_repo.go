package repository

import (
	"context"

	"edumatch.id/studybuddy/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.ChatMessage) error
	FindConversation(ctx context.Context, x, y uuid.UUID) ([]model.ChatMessage, error)
	MarkConversationRead(ctx context.Context, receiver, sender uuid.UUID) error
	CountUnread(ctx context.Context, receiver uuid.UUID) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// FindConversation returns every message exchanged between the two users,
// oldest first.
func (r *messageRepository) FindConversation(ctx context.Context, x, y uuid.UUID) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", x, y, y, x).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkConversationRead flips is_read on messages sent by sender to receiver.
// Only the receiver's history fetch calls this.
func (r *messageRepository) MarkConversationRead(ctx context.Context, receiver, sender uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiver, sender, false).
		Update("is_read", true).Error
}

func (r *messageRepository) CountUnread(ctx context.Context, receiver uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("receiver_id = ? AND is_read = ?", receiver, false).
		Count(&count).Error
	return count, err
}
