package eventbus

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"lapakchat/pkg/logger"
)

// Event is a lightweight domain event published after a primary
// transaction has committed. Payload values stay loosely typed so
// subscribers decide what they need.
type Event struct {
	Type      string
	StoreID   string
	Timestamp time.Time
	Payload   map[string]interface{}
}

// Event types carried on the bus.
const (
	TypeMessageSent    = "chat.message.sent"
	TypeMessageBlocked = "chat.message.blocked"
	TypeRatingCreated  = "chat.rating.created"
	TypeInquiryCreated = "chat.inquiry.created"
)

// Handler is a function that handles events.
type Handler func(event Event)

type subscription struct {
	id       string
	patterns []string
	handler  Handler
}

// Bus routes events to pattern-matched subscribers. Delivery is
// fire-and-forget on a fresh goroutine per subscriber, so a slow consumer
// never blocks the publisher's critical path.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	nextID        int
}

func NewBus() *Bus {
	return &Bus{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe registers a handler for events matching the given patterns
// and returns a subscription id for Unsubscribe.
func (b *Bus) Subscribe(patterns []string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := strings.Join(patterns, ",") + "#" + strconv.Itoa(b.nextID)

	b.subscriptions[id] = &subscription{
		id:       id,
		patterns: patterns,
		handler:  handler,
	}

	logger.Info("eventbus: new subscription %s for patterns %v", id, patterns)
	return id
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscriptions, id)
}

// Publish sends an event to all matching subscribers.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscriptions {
		if matchesAny(event.Type, sub.patterns) {
			go sub.handler(event)
		}
	}
}

func matchesAny(eventType string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, eventType) {
			return true
		}
	}
	return false
}

// matchPattern supports trailing wildcards: "chat.*" matches
// "chat.message.sent" and "chat.rating.created".
func matchPattern(pattern, eventType string) bool {
	if pattern == "*" {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	eventParts := strings.Split(eventType, ".")

	for i, pp := range patternParts {
		if pp == "*" {
			return true
		}
		if i >= len(eventParts) {
			return false
		}
		if pp != eventParts[i] {
			return false
		}
	}

	return len(patternParts) == len(eventParts)
}
