package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"edumatch.id/studybuddy/internal/dto"
	"edumatch.id/studybuddy/internal/model"
	"edumatch.id/studybuddy/internal/repository"
	"edumatch.id/studybuddy/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// One value per failure kind, so the websocket layer can answer each with a
// distinct signal instead of a blanket error.
var (
	ErrMalformedRoom     = apperror.New(0, "malformed room identifier", apperror.ErrInvalidInput)
	ErrNotRoomMember     = apperror.New(0, "caller is not a participant of this room", apperror.ErrForbidden)
	ErrNotMatched        = apperror.New(0, "users are not mutually matched", apperror.ErrForbidden)
	ErrMalformedPayload  = apperror.New(0, "malformed message payload", apperror.ErrInvalidInput)
	ErrSenderSpoofed     = apperror.New(0, "sender does not match authenticated user", apperror.ErrForbidden)
	ErrReceiverNotInRoom = apperror.New(0, "receiver is not the other room participant", apperror.ErrInvalidInput)
	ErrEmptyMessage      = apperror.New(0, "message must not be empty", apperror.ErrInvalidInput)
	ErrSendingTooFast    = apperror.New(0, "sending messages too fast", apperror.ErrRateLimitExceeded)
)

// ChatRoom is a parsed, canonicalized room identifier.
type ChatRoom struct {
	UserA uuid.UUID
	UserB uuid.UUID
}

// ParseRoom parses "<uuid>_<uuid>" into a canonical room. Both ids must be
// valid, distinct uuids.
func ParseRoom(name string) (ChatRoom, error) {
	parts := strings.Split(name, "_")
	if len(parts) != 2 {
		return ChatRoom{}, ErrMalformedRoom
	}

	x, err := uuid.Parse(parts[0])
	if err != nil {
		return ChatRoom{}, ErrMalformedRoom
	}
	y, err := uuid.Parse(parts[1])
	if err != nil {
		return ChatRoom{}, ErrMalformedRoom
	}
	if x == y {
		return ChatRoom{}, ErrMalformedRoom
	}

	a, b := model.CanonicalPair(x, y)
	return ChatRoom{UserA: a, UserB: b}, nil
}

// Channel is the redis pub/sub channel for this room. Canonical, so both
// participants subscribe to the same channel whichever way the client wrote
// the room name.
func (r ChatRoom) Channel() string {
	return "chat:" + r.UserA.String() + "_" + r.UserB.String()
}

// Has reports whether id is one of the two participants.
func (r ChatRoom) Has(id uuid.UUID) bool {
	return r.UserA == id || r.UserB == id
}

// Other resolves the participant that is not id.
func (r ChatRoom) Other(id uuid.UUID) uuid.UUID {
	if r.UserA == id {
		return r.UserB
	}
	return r.UserA
}

type ChatService interface {
	Authorize(ctx context.Context, callerID uuid.UUID, roomName string) (ChatRoom, error)
	SendMessage(ctx context.Context, callerID uuid.UUID, room ChatRoom, input dto.IncomingChatMessage) (*model.ChatMessage, error)
	History(ctx context.Context, callerID, otherID uuid.UUID) ([]model.ChatMessage, error)
}

type chatService struct {
	messages        repository.MessageRepository
	matches         MatchService
	redisClient     *redis.Client
	messageInterval time.Duration
}

func NewChatService(messages repository.MessageRepository, matches MatchService, redisClient *redis.Client) ChatService {
	// Optional flood guard; zero (the default) disables it.
	var interval time.Duration
	if s := os.Getenv("CHAT_MESSAGE_INTERVAL"); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil {
			interval = parsed
		} else {
			log.Printf("invalid CHAT_MESSAGE_INTERVAL %q, flood guard disabled: %v", s, err)
		}
	}

	return &chatService{
		messages:        messages,
		matches:         matches,
		redisClient:     redisClient,
		messageInterval: interval,
	}
}

// Authorize decides whether callerID may open a session on roomName. The
// check runs on every connection attempt; nothing is cached between
// reconnects. Admission requires a well-formed room, the caller being one of
// the two named users, and a mutual match between them.
func (s *chatService) Authorize(ctx context.Context, callerID uuid.UUID, roomName string) (ChatRoom, error) {
	room, err := ParseRoom(roomName)
	if err != nil {
		return ChatRoom{}, err
	}

	if !room.Has(callerID) {
		return ChatRoom{}, ErrNotRoomMember
	}

	mutual, err := s.matches.AreMutuallyMatched(ctx, room.UserA, room.UserB)
	if err != nil {
		return ChatRoom{}, err
	}
	if !mutual {
		return ChatRoom{}, ErrNotMatched
	}

	return room, nil
}

// SendMessage validates, persists, then relays one message. Persist comes
// before publish so a message is never delivered without surviving a fetch
// of the history. Every rejection leaves no trace: nothing stored, nothing
// relayed.
func (s *chatService) SendMessage(ctx context.Context, callerID uuid.UUID, room ChatRoom, input dto.IncomingChatMessage) (*model.ChatMessage, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrEmptyMessage
	}

	senderID, err := uuid.Parse(input.SenderID)
	if err != nil {
		return nil, ErrMalformedPayload
	}
	receiverID, err := uuid.Parse(input.ReceiverID)
	if err != nil {
		return nil, ErrMalformedPayload
	}

	if senderID != callerID {
		return nil, ErrSenderSpoofed
	}
	if !room.Has(receiverID) || receiverID != room.Other(callerID) {
		return nil, ErrReceiverNotInRoom
	}

	// The connection gate already checked the match, but the relationship
	// may have changed since; re-check per message, fail closed.
	mutual, err := s.matches.AreMutuallyMatched(ctx, room.UserA, room.UserB)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return nil, ErrNotMatched
	}

	if s.messageInterval > 0 {
		ok, err := checkAndSetRateLimit(ctx, s.redisClient, callerID, "chat_message", s.messageInterval)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSendingTooFast
		}
	}

	message := &model.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    input.Message,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(dto.NewOutgoingChatMessage(message))
		if err == nil {
			if err := s.redisClient.Publish(ctx, room.Channel(), payload).Err(); err != nil {
				log.Printf("failed to publish chat message %s: %v", message.ID, err)
			}
		}
	}

	return message, nil
}

// History returns the conversation between the caller and the other user,
// oldest first, and marks the messages addressed to the caller as read.
// Only mutually matched pairs may read their history.
func (s *chatService) History(ctx context.Context, callerID, otherID uuid.UUID) ([]model.ChatMessage, error) {
	if callerID == otherID {
		return nil, apperror.New(0, "cannot fetch a conversation with yourself", apperror.ErrInvalidInput)
	}

	mutual, err := s.matches.AreMutuallyMatched(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return nil, ErrNotMatched
	}

	messages, err := s.messages.FindConversation(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}

	if err := s.messages.MarkConversationRead(ctx, callerID, otherID); err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].ReceiverID == callerID {
			messages[i].IsRead = true
		}
	}

	return messages, nil
}
