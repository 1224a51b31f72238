package handler

import (
	"context"
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"lapakchat/internal/adapter/api/middleware"
	"lapakchat/internal/domain/entity"
	ws "lapakchat/internal/infrastructure/websocket"
	"lapakchat/internal/usecase"
	"lapakchat/pkg/errors"
	"lapakchat/pkg/logger"
)

type WebSocketHandler struct {
	wsManager           *ws.Manager
	conversationUseCase *usecase.ConversationUseCase
	authMiddleware      *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, conversationUseCase *usecase.ConversationUseCase, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:           wsManager,
		conversationUseCase: conversationUseCase,
		authMiddleware:      authMiddleware,
	}
}

// HandleWebSocket authenticates via the token query param (browser ws
// clients cannot set headers) or a pre-set uid, upgrades, and starts the
// client pumps.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, _ := c.Get("uid").(string)
	if userID == "" {
		token := c.QueryParam("token")
		if token == "" {
			return errors.Unauthorized("Authentication required", nil)
		}
		uid, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
		if err != nil {
			return errors.Unauthorized("Invalid or expired token", err)
		}
		userID = uid
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager, h.dispatch)
	go client.WritePump()

	return nil
}

// dispatch routes one inbound envelope. Malformed or failing events answer
// the sender with an error envelope; the connection stays open.
func (h *WebSocketHandler) dispatch(client *ws.Client, payload []byte) {
	var envelope ws.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		h.sendError(client, "", errors.BadRequest("Malformed event", err))
		return
	}

	ctx := context.Background()

	switch envelope.Type {
	case ws.EventPing:
		h.wsManager.SendToUser(client.UserID, ws.NewEnvelope(ws.EventPong, "", nil))

	case ws.EventJoin:
		h.handleJoin(ctx, client, envelope.ConversationID)

	case ws.EventLeave:
		h.wsManager.LeaveRoom(envelope.ConversationID, client)

	case ws.EventSend:
		h.handleSend(ctx, client, envelope)

	case ws.EventTypingStart:
		if h.wsManager.InRoom(envelope.ConversationID, client.UserID) {
			h.wsManager.StartTyping(envelope.ConversationID, client.UserID)
		}

	case ws.EventTypingStop:
		if h.wsManager.InRoom(envelope.ConversationID, client.UserID) {
			h.wsManager.StopTyping(envelope.ConversationID, client.UserID)
		}

	case ws.EventMarkRead:
		if err := h.conversationUseCase.MarkRead(ctx, envelope.ConversationID, client.UserID); err != nil {
			h.sendError(client, envelope.ConversationID, err)
		}

	case ws.EventRate:
		var data ws.RateData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			h.sendError(client, envelope.ConversationID, errors.BadRequest("Malformed rate payload", err))
			return
		}
		if err := h.conversationUseCase.Rate(ctx, envelope.ConversationID, client.UserID, data.Rating); err != nil {
			h.sendError(client, envelope.ConversationID, err)
		}

	default:
		h.sendError(client, envelope.ConversationID, errors.BadRequest("Unknown event type: "+envelope.Type, nil))
	}
}

func (h *WebSocketHandler) handleJoin(ctx context.Context, client *ws.Client, conversationID string) {
	if _, err := h.conversationUseCase.AuthorizeParticipant(ctx, conversationID, client.UserID); err != nil {
		h.sendError(client, conversationID, err)
		return
	}

	// JoinRoom is idempotent; only a first join announces the participant.
	if h.wsManager.JoinRoom(conversationID, client) {
		h.wsManager.BroadcastToRoomExcept(conversationID, client.UserID,
			ws.NewEnvelope(ws.EventParticipantJoined, conversationID, ws.ParticipantData{UserID: client.UserID}))
	}
}

func (h *WebSocketHandler) handleSend(ctx context.Context, client *ws.Client, envelope ws.Envelope) {
	var data ws.SendData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			h.sendError(client, envelope.ConversationID, errors.BadRequest("Malformed send payload", err))
			return
		}
	}

	input := usecase.SendMessageInput{
		Content: data.Content,
		Type:    data.Type,
	}
	if len(data.File) > 0 {
		var file entity.FileAttachment
		if err := json.Unmarshal(data.File, &file); err != nil {
			h.sendError(client, envelope.ConversationID, errors.BadRequest("Malformed file payload", err))
			return
		}
		input.File = &file
	}
	if len(data.Receipt) > 0 {
		var receipt entity.ReceiptAttachment
		if err := json.Unmarshal(data.Receipt, &receipt); err != nil {
			h.sendError(client, envelope.ConversationID, errors.BadRequest("Malformed receipt payload", err))
			return
		}
		input.Receipt = &receipt
	}

	_, rejection, err := h.conversationUseCase.SendMessage(ctx, envelope.ConversationID, client.UserID, input)
	if err != nil {
		h.sendError(client, envelope.ConversationID, err)
		return
	}
	if rejection != nil {
		// Rejections go to the sender only; nobody else learns of the attempt.
		h.wsManager.SendToUser(client.UserID, ws.NewEnvelope(ws.EventModerationRejected, envelope.ConversationID, ws.ModerationRejectedData{
			Reason:      rejection.Reason,
			Categories:  rejection.Categories,
			Remediation: rejection.Remediation,
		}))
	}
	// The accepted message itself is broadcast by the use case.
}

func (h *WebSocketHandler) sendError(client *ws.Client, conversationID string, err error) {
	code := "INTERNAL_ERROR"
	message := "Something went wrong"
	if appErr, ok := err.(*errors.AppError); ok {
		code = appErr.Code
		message = appErr.Message
	} else if err != nil {
		logger.Error("WebSocket: unexpected error for %s: %v", client.UserID, err)
	}

	h.wsManager.SendToUser(client.UserID, ws.NewEnvelope(ws.EventError, conversationID, ws.ErrorData{
		Code:    code,
		Message: message,
	}))
}
