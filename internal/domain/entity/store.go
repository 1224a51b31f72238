package entity

import "time"

type Store struct {
	ID        string    `json:"id" firestore:"id"`
	OwnerID   string    `json:"owner_id" firestore:"ownerId"`
	Name      string    `json:"name" firestore:"name"`
	LogoURL   string    `json:"logo_url,omitempty" firestore:"logoURL,omitempty"`
	Status    string    `json:"status" firestore:"status"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Item is the catalog service's view of a product a conversation can be
// anchored to.
type Item struct {
	ID       string  `json:"id" firestore:"id"`
	StoreID  string  `json:"store_id" firestore:"storeId"`
	Name     string  `json:"name" firestore:"name"`
	ImageURL string  `json:"image_url,omitempty" firestore:"imageURL,omitempty"`
	Price    float64 `json:"price" firestore:"price"`
}
