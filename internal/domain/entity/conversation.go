package entity

import "time"

const (
	RoleCustomer   = "customer"
	RoleStoreOwner = "store_owner"
)

const (
	ConversationActive   = "active"
	ConversationArchived = "archived"
	ConversationBlocked  = "blocked"
)

type Participant struct {
	UserID   string     `json:"user_id" firestore:"userId"`
	Role     string     `json:"role" firestore:"role"` // "customer", "store_owner"
	JoinedAt time.Time  `json:"joined_at" firestore:"joinedAt"`
	LeftAt   *time.Time `json:"left_at,omitempty" firestore:"leftAt,omitempty"`
	IsActive bool       `json:"is_active" firestore:"isActive"`
}

// LastMessage is a denormalized snapshot of the newest message, kept in
// sync by AppendMessage so conversation lists render without a message scan.
type LastMessage struct {
	Content     string    `json:"content" firestore:"content"`
	SenderID    string    `json:"sender_id" firestore:"senderId"`
	MessageType string    `json:"message_type" firestore:"messageType"`
	Timestamp   time.Time `json:"timestamp" firestore:"timestamp"`
}

type ConversationAnalytics struct {
	// Set exactly once per conversation, by the customer.
	CustomerSatisfaction *int       `json:"customer_satisfaction,omitempty" firestore:"customerSatisfaction,omitempty"`
	RatedAt              *time.Time `json:"rated_at,omitempty" firestore:"ratedAt,omitempty"`
}

type Conversation struct {
	ID           string                `json:"id" firestore:"id"`
	CustomerID   string                `json:"customer_id" firestore:"customerId"`
	StoreOwnerID string                `json:"store_owner_id" firestore:"storeOwnerId"`
	StoreID      string                `json:"store_id" firestore:"storeId"`
	ItemID       string                `json:"item_id,omitempty" firestore:"itemId,omitempty"`
	Participants []Participant         `json:"participants" firestore:"participants"`
	// ParticipantIDs duplicates the participant user ids as a flat array
	// for membership queries; kept in sync whenever Participants changes.
	ParticipantIDs []string `json:"-" firestore:"participantIds"`
	Status       string                `json:"status" firestore:"status"` // "active", "archived", "blocked"
	BlockReason  string                `json:"block_reason,omitempty" firestore:"blockReason,omitempty"`
	UnreadCount  map[string]int        `json:"unread_count" firestore:"unreadCount"` // keyed by role
	LastMessage  *LastMessage          `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	Analytics    ConversationAnalytics `json:"analytics" firestore:"analytics"`
	CreatedAt    time.Time             `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time             `json:"updated_at" firestore:"updatedAt"`
}

// ActiveParticipant returns the active participant entry for userID, or nil.
func (c *Conversation) ActiveParticipant(userID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID && c.Participants[i].IsActive {
			return &c.Participants[i]
		}
	}
	return nil
}

// ParticipantRole returns the role userID holds in the conversation,
// regardless of whether the membership is still active.
func (c *Conversation) ParticipantRole(userID string) (string, bool) {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return c.Participants[i].Role, true
		}
	}
	return "", false
}

// CounterpartRole maps a sender role to the role whose unread counter the
// send increments.
func CounterpartRole(role string) string {
	if role == RoleCustomer {
		return RoleStoreOwner
	}
	return RoleCustomer
}
