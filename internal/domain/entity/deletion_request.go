package entity

import "time"

// DeletionRequest queues a GDPR erasure request for a conversation. It is
// a request record only; fulfilment happens outside this subsystem.
type DeletionRequest struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	RequestedBy    string    `json:"requested_by" firestore:"requestedBy"`
	Reason         string    `json:"reason,omitempty" firestore:"reason,omitempty"`
	Status         string    `json:"status" firestore:"status"` // "pending", "processed"
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
