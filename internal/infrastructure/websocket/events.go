package websocket

import (
	"encoding/json"
	"time"
)

// Client-to-server event types.
const (
	EventPing        = "ping"
	EventJoin        = "join"
	EventLeave       = "leave"
	EventSend        = "send"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
	EventMarkRead    = "mark_read"
	EventRate        = "rate"
)

// Server-to-client event types.
const (
	EventPong                = "pong"
	EventMessage             = "message"
	EventTyping              = "typing"
	EventReadReceipt         = "read_receipt"
	EventModerationRejected  = "moderation_rejected"
	EventParticipantJoined   = "participant_joined"
	EventParticipantLeft     = "participant_left"
	EventRating              = "rating"
	EventError               = "error"
)

// Envelope is the wire format for every realtime event in both directions.
type Envelope struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
}

// NewEnvelope marshals data into a server-to-client envelope. Marshal
// failures fall back to an empty data field; payloads are plain structs
// and maps, so this does not fail in practice.
func NewEnvelope(eventType, conversationID string, data interface{}) Envelope {
	raw, _ := json.Marshal(data)
	return Envelope{
		Type:           eventType,
		ConversationID: conversationID,
		Data:           raw,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
}

func (e Envelope) Encode() []byte {
	raw, _ := json.Marshal(e)
	return raw
}

type SendData struct {
	Content string          `json:"content,omitempty"`
	Type    string          `json:"type,omitempty"`
	File    json.RawMessage `json:"file,omitempty"`
	Receipt json.RawMessage `json:"receipt,omitempty"`
}

type RateData struct {
	Rating int `json:"rating"`
}

type TypingData struct {
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type ParticipantData struct {
	UserID string `json:"user_id"`
}

type ReadReceiptData struct {
	UserID string `json:"user_id"`
	ReadAt string `json:"read_at"`
}

type RatingData struct {
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
}

type ModerationRejectedData struct {
	Reason      string         `json:"reason"`
	Categories  map[string]int `json:"categories"`
	Remediation string         `json:"remediation"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
