package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID string) *Client {
	return &Client{
		UserID: userID,
		Send:   make(chan []byte, 16),
	}
}

func registerTestClient(m *Manager, client *Client) {
	m.mutex.Lock()
	m.clients[client.UserID] = client
	m.mutex.Unlock()
}

func receiveEnvelope(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case payload := <-client.Send:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(payload, &envelope))
		return envelope
	case <-time.After(time.Second):
		t.Fatal("no envelope received")
		return Envelope{}
	}
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	m := NewManager(5 * time.Second)
	client := newTestClient("user-1")

	assert.True(t, m.JoinRoom("conv-1", client))
	assert.False(t, m.JoinRoom("conv-1", client))
	assert.True(t, m.InRoom("conv-1", "user-1"))
}

func TestBroadcastToRoom(t *testing.T) {
	m := NewManager(5 * time.Second)
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	registerTestClient(m, alice)
	registerTestClient(m, bob)
	m.JoinRoom("conv-1", alice)
	m.JoinRoom("conv-1", bob)

	m.BroadcastToRoom("conv-1", NewEnvelope(EventMessage, "conv-1", map[string]string{"content": "hi"}))

	for _, client := range []*Client{alice, bob} {
		envelope := receiveEnvelope(t, client)
		assert.Equal(t, EventMessage, envelope.Type)
		assert.Equal(t, "conv-1", envelope.ConversationID)
	}
}

func TestBroadcastToRoomExceptSkipsSender(t *testing.T) {
	m := NewManager(5 * time.Second)
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	registerTestClient(m, alice)
	registerTestClient(m, bob)
	m.JoinRoom("conv-1", alice)
	m.JoinRoom("conv-1", bob)

	m.BroadcastToRoomExcept("conv-1", "alice", NewEnvelope(EventReadReceipt, "conv-1", nil))

	envelope := receiveEnvelope(t, bob)
	assert.Equal(t, EventReadReceipt, envelope.Type)
	assert.Empty(t, alice.Send)
}

func TestBroadcastDoesNotLeakAcrossRooms(t *testing.T) {
	m := NewManager(5 * time.Second)
	alice := newTestClient("alice")
	carol := newTestClient("carol")
	registerTestClient(m, alice)
	registerTestClient(m, carol)
	m.JoinRoom("conv-1", alice)
	m.JoinRoom("conv-2", carol)

	m.BroadcastToRoom("conv-1", NewEnvelope(EventMessage, "conv-1", nil))

	receiveEnvelope(t, alice)
	assert.Empty(t, carol.Send)
}

func TestIsOnline(t *testing.T) {
	m := NewManager(5 * time.Second)
	client := newTestClient("user-1")

	assert.False(t, m.IsOnline("user-1"))
	registerTestClient(m, client)
	assert.True(t, m.IsOnline("user-1"))
}

func TestLeaveRoom(t *testing.T) {
	m := NewManager(5 * time.Second)
	client := newTestClient("user-1")
	registerTestClient(m, client)
	m.JoinRoom("conv-1", client)

	m.LeaveRoom("conv-1", client)
	assert.False(t, m.InRoom("conv-1", "user-1"))

	m.BroadcastToRoom("conv-1", NewEnvelope(EventMessage, "conv-1", nil))
	assert.Empty(t, client.Send)
}

func TestBroadcastAfterDisconnectDoesNotPanic(t *testing.T) {
	m := NewManager(5 * time.Second)
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	registerTestClient(m, alice)
	registerTestClient(m, bob)
	m.JoinRoom("conv-1", alice)
	m.JoinRoom("conv-1", bob)

	// A broadcast can snapshot bob as a target right before he
	// disconnects; delivery to the closed client must be a no-op.
	m.disconnect(bob)
	m.deliver(bob, NewEnvelope(EventMessage, "conv-1", nil).Encode())

	m.BroadcastToRoom("conv-1", NewEnvelope(EventMessage, "conv-1", map[string]string{"content": "hi"}))

	left := receiveEnvelope(t, alice)
	assert.Equal(t, EventParticipantLeft, left.Type)
	envelope := receiveEnvelope(t, alice)
	assert.Equal(t, EventMessage, envelope.Type)
}

func TestCloseSendIsIdempotent(t *testing.T) {
	client := newTestClient("user-1")

	client.closeSend()
	client.closeSend()

	// Enqueue on a closed client reports success so racing broadcasts
	// do not trigger another unregister.
	assert.True(t, client.enqueue([]byte("late")))
	_, open := <-client.Send
	assert.False(t, open)
}

func TestTypingTimeoutBroadcastsStop(t *testing.T) {
	m := NewManager(50 * time.Millisecond)
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	registerTestClient(m, alice)
	registerTestClient(m, bob)
	m.JoinRoom("conv-1", alice)
	m.JoinRoom("conv-1", bob)

	m.StartTyping("conv-1", "alice")

	start := receiveEnvelope(t, bob)
	assert.Equal(t, EventTyping, start.Type)
	var started TypingData
	require.NoError(t, json.Unmarshal(start.Data, &started))
	assert.True(t, started.IsTyping)

	// The timer fires without an explicit typing_stop.
	stop := receiveEnvelope(t, bob)
	assert.Equal(t, EventTyping, stop.Type)
	var stopped TypingData
	require.NoError(t, json.Unmarshal(stop.Data, &stopped))
	assert.False(t, stopped.IsTyping)
}
