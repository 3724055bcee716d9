package dto

import (
	"time"

	"edumatch.id/studybuddy/internal/model"
)

// IncomingChatMessage is a client websocket frame.
type IncomingChatMessage struct {
	Message    string `json:"message"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}

// OutgoingChatMessage is the frame relayed to every session in the room.
type OutgoingChatMessage struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}

// ChatError is sent only to the session whose frame was refused.
type ChatError struct {
	Error string `json:"error"`
}

func NewOutgoingChatMessage(m *model.ChatMessage) *OutgoingChatMessage {
	return &OutgoingChatMessage{
		ID:         m.ID.String(),
		Content:    m.Content,
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Timestamp:  m.CreatedAt,
		IsRead:     m.IsRead,
	}
}
