package websocket

import (
	"context"
	"sync"
	"time"

	"lapakchat/pkg/logger"
)

// Manager owns all active connections and the per-conversation broadcast
// rooms. It knows nothing about conversation state; authorization happens
// before JoinRoom is called.
type Manager struct {
	clients map[string]*Client            // by user id
	rooms   map[string]map[string]*Client // conversation id -> user id -> client

	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	typingTimers  map[string]*time.Timer // conversation id + ":" + user id
	typingMutex   sync.Mutex
	typingTimeout time.Duration
}

func NewManager(typingTimeout time.Duration) *Manager {
	return &Manager{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		typingTimers:  make(map[string]*time.Timer),
		typingTimeout: typingTimeout,
	}
}

// Start runs the manager's register/unregister loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Info("WebSocket: client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.disconnect(client)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// disconnect drops the client from every room it joined, notifying the
// remaining subscribers, and cancels its typing timers. Conversation
// state is untouched: leaving the channel is not leaving the conversation.
func (m *Manager) disconnect(client *Client) {
	m.mutex.Lock()
	if current, ok := m.clients[client.UserID]; ok && current == client {
		delete(m.clients, client.UserID)
		client.closeSend()
	}
	var left []string
	for conversationID, members := range m.rooms {
		if members[client.UserID] == client {
			delete(members, client.UserID)
			left = append(left, conversationID)
			if len(members) == 0 {
				delete(m.rooms, conversationID)
			}
		}
	}
	m.mutex.Unlock()

	for _, conversationID := range left {
		m.cancelTypingTimer(conversationID, client.UserID)
		m.BroadcastToRoomExcept(conversationID, client.UserID,
			NewEnvelope(EventParticipantLeft, conversationID, ParticipantData{UserID: client.UserID}))
	}

	logger.Info("WebSocket: client unregistered: %s", client.UserID)
}

// JoinRoom subscribes the client to a conversation's broadcast room.
// Returns false when the client was already subscribed, so duplicate join
// requests do not produce duplicate participant_joined broadcasts.
func (m *Manager) JoinRoom(conversationID string, client *Client) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	members, ok := m.rooms[conversationID]
	if !ok {
		members = make(map[string]*Client)
		m.rooms[conversationID] = members
	}
	if _, joined := members[client.UserID]; joined {
		return false
	}
	members[client.UserID] = client
	return true
}

func (m *Manager) LeaveRoom(conversationID string, client *Client) {
	m.mutex.Lock()
	members, ok := m.rooms[conversationID]
	if ok {
		delete(members, client.UserID)
		if len(members) == 0 {
			delete(m.rooms, conversationID)
		}
	}
	m.mutex.Unlock()

	m.cancelTypingTimer(conversationID, client.UserID)
}

// BroadcastToRoom fans an envelope out to every subscriber of the
// conversation. Delivery is fire-and-forget per subscriber: a client with
// a full send buffer is dropped rather than blocking the sender.
func (m *Manager) BroadcastToRoom(conversationID string, envelope Envelope) {
	m.sendToRoom(conversationID, "", envelope)
}

func (m *Manager) BroadcastToRoomExcept(conversationID, exceptUserID string, envelope Envelope) {
	m.sendToRoom(conversationID, exceptUserID, envelope)
}

func (m *Manager) sendToRoom(conversationID, exceptUserID string, envelope Envelope) {
	payload := envelope.Encode()

	m.mutex.RLock()
	members := m.rooms[conversationID]
	targets := make([]*Client, 0, len(members))
	for userID, client := range members {
		if userID == exceptUserID {
			continue
		}
		targets = append(targets, client)
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		m.deliver(client, payload)
	}
}

// SendToUser delivers an envelope to one connected user, if connected.
func (m *Manager) SendToUser(userID string, envelope Envelope) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if ok {
		m.deliver(client, envelope.Encode())
	}
}

func (m *Manager) deliver(client *Client, payload []byte) {
	if !client.enqueue(payload) {
		logger.Warn("WebSocket: client %s send buffer full, dropping connection", client.UserID)
		go func() { m.Unregister <- client }()
	}
}

// IsOnline answers the presence question for UI indicators.
func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// InRoom reports whether the user currently subscribes to the
// conversation's room.
func (m *Manager) InRoom(conversationID, userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	members, ok := m.rooms[conversationID]
	if !ok {
		return false
	}
	_, joined := members[userID]
	return joined
}

// StartTyping relays a typing indicator to the other subscribers and arms
// the quiet-period timer: if no further keystroke event arrives before the
// timeout, a synthetic stop is emitted so peers of a vanished client do
// not see a stuck indicator.
func (m *Manager) StartTyping(conversationID, userID string) {
	m.BroadcastToRoomExcept(conversationID, userID,
		NewEnvelope(EventTyping, conversationID, TypingData{UserID: userID, IsTyping: true}))

	key := conversationID + ":" + userID

	m.typingMutex.Lock()
	defer m.typingMutex.Unlock()

	if timer, ok := m.typingTimers[key]; ok {
		timer.Reset(m.typingTimeout)
		return
	}
	m.typingTimers[key] = time.AfterFunc(m.typingTimeout, func() {
		m.StopTyping(conversationID, userID)
	})
}

// StopTyping relays an explicit or synthetic stop and disarms the timer.
// Safe to call when no indicator is active.
func (m *Manager) StopTyping(conversationID, userID string) {
	m.cancelTypingTimer(conversationID, userID)
	m.BroadcastToRoomExcept(conversationID, userID,
		NewEnvelope(EventTyping, conversationID, TypingData{UserID: userID, IsTyping: false}))
}

func (m *Manager) cancelTypingTimer(conversationID, userID string) {
	key := conversationID + ":" + userID

	m.typingMutex.Lock()
	defer m.typingMutex.Unlock()

	if timer, ok := m.typingTimers[key]; ok {
		timer.Stop()
		delete(m.typingTimers, key)
	}
}
