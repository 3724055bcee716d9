package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"edumatch.id/studybuddy/internal/dto"
	"edumatch.id/studybuddy/internal/service"
	"edumatch.id/studybuddy/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type ChatHandler struct {
	chatService service.ChatService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewChatHandler(chatService service.ChatService, redisClient *redis.Client) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

// REST Endpoint

// GetHistory returns the conversation with :user_id and marks the messages
// addressed to the caller as read.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	otherID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), userID, otherID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]*dto.OutgoingChatMessage, 0, len(messages))
	for i := range messages {
		out = append(out, dto.NewOutgoingChatMessage(&messages[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

// WebSocket Endpoint

// HandleWebSocket opens a chat session on /ws/chat/:room. The authorization
// gate runs before the upgrade: a denied caller never gets a socket, and no
// state is retained. Admitted sessions relay through the room's redis
// channel, so every connected session of both participants sees each
// message once.
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	room, err := h.chatService.Authorize(c.Request.Context(), userID, c.Param("room"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat relay unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	pubsub := h.redisClient.Subscribe(c.Request.Context(), room.Channel())
	defer pubsub.Close()

	// Wait for confirmation that the subscription is created before
	// accepting inbound frames, otherwise our own first message could be
	// published before we listen.
	if _, err := pubsub.Receive(c.Request.Context()); err != nil {
		log.Printf("failed to subscribe to chat channel: %v", err)
		return
	}

	// Typed error frames go back only to the session that caused them, so
	// they bypass the room channel. The reader goroutine pushes them here
	// and the write loop owns the connection.
	rejections := make(chan []byte, 8)
	clientClosed := make(chan struct{})

	go func() {
		defer close(clientClosed)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				// Client disconnected or error
				return
			}
			if frame := h.handleInbound(c.Request.Context(), userID, room, data); frame != nil {
				select {
				case rejections <- frame:
				case <-c.Request.Context().Done():
					return
				}
			}
		}
	}()

	ch := pubsub.Channel()

	for {
		select {
		case msg := <-ch:
			// Payload is already the JSON-encoded outgoing message.
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("failed to write message to websocket: %v", err)
				return
			}
		case frame := <-rejections:
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

// handleInbound processes one client frame. Accepted messages come back to
// the session through the room channel; the returned frame is non-nil only
// for rejections.
func (h *ChatHandler) handleInbound(ctx context.Context, userID uuid.UUID, room service.ChatRoom, data []byte) []byte {
	var input dto.IncomingChatMessage
	if err := json.Unmarshal(data, &input); err != nil {
		return errorFrame("malformed message payload")
	}

	if _, err := h.chatService.SendMessage(ctx, userID, room, input); err != nil {
		return errorFrame(err.Error())
	}

	return nil
}

func errorFrame(message string) []byte {
	frame, err := json.Marshal(dto.ChatError{Error: message})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return frame
}
