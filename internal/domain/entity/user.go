package entity

import "time"

// User mirrors what the identity provider supplies. This subsystem trusts
// it verbatim and never mutates identity fields.
type User struct {
	ID        string    `json:"id" firestore:"id"`
	Username  string    `json:"username" firestore:"username"`
	Email     string    `json:"email,omitempty" firestore:"email,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`
	Role      string    `json:"role" firestore:"role"` // "customer", "store_owner"
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
