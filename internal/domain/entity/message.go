package entity

import "time"

const (
	MessageTypeText    = "text"
	MessageTypeImage   = "image"
	MessageTypeReceipt = "receipt"
	MessageTypeSystem  = "system"
)

// SystemSenderID is the sentinel author for broadcast/system messages.
const SystemSenderID = "system"

// DeletedPlaceholder permanently replaces the content of a soft-deleted
// message.
const DeletedPlaceholder = "This message was deleted"

type FileAttachment struct {
	URL      string `json:"url" firestore:"url"`
	Filename string `json:"filename" firestore:"filename"`
	Size     int64  `json:"size" firestore:"size"`
	MimeType string `json:"mime_type" firestore:"mimeType"`
}

type ReceiptAttachment struct {
	OrderID    string  `json:"order_id" firestore:"orderId"`
	Amount     float64 `json:"amount" firestore:"amount"`
	Status     string  `json:"status" firestore:"status"`
	ReceiptURL string  `json:"receipt_url,omitempty" firestore:"receiptUrl,omitempty"`
}

type ReadReceipt struct {
	UserID string    `json:"user_id" firestore:"userId"`
	ReadAt time.Time `json:"read_at" firestore:"readAt"`
}

// Message lives in a conversation's subcollection and is never standalone.
// A message rejected by moderation is never persisted.
type Message struct {
	ID             string             `json:"id" firestore:"id"`
	ConversationID string             `json:"conversation_id" firestore:"conversationId"`
	SenderID       string             `json:"sender_id" firestore:"senderId"`
	Content        string             `json:"content,omitempty" firestore:"content,omitempty"`
	Type           string             `json:"type" firestore:"type"` // "text", "image", "receipt", "system"
	File           *FileAttachment    `json:"file,omitempty" firestore:"file,omitempty"`
	Receipt        *ReceiptAttachment `json:"receipt,omitempty" firestore:"receipt,omitempty"`
	ReadBy         []ReadReceipt      `json:"read_by" firestore:"readBy"`
	IsDeleted      bool               `json:"is_deleted" firestore:"isDeleted"`
	DeletedAt      *time.Time         `json:"deleted_at,omitempty" firestore:"deletedAt,omitempty"`
	CreatedAt      time.Time          `json:"created_at" firestore:"createdAt"`
}

// ReadByUser reports whether userID already has a read receipt on the
// message. ReadBy holds at most one entry per user.
func (m *Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
