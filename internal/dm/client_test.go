package dm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sorchess/Picaton-sub002/internal/auth"
	"github.com/Sorchess/Picaton-sub002/internal/ws"
	"github.com/Sorchess/Picaton-sub002/internal/ws/wstest"
)

func newTestClient(t *testing.T, srv *wstest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		ConversationID: "conv_1",
		BaseURL:        srv.BaseURL(),
		Channel: ws.Options{
			Tokens:            auth.Static("tok"),
			KeepaliveInterval: time.Hour,
			ConnectTimeout:    2 * time.Second,
		},
	})
	require.NoError(t, err)
	return client
}

func TestNewRequiresConversationID(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestOutboundFramesCarryConversationID(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, client.SendMessage(context.Background(), "hey", ""))
	frame, ok := srv.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, "send_message", frame["action"])
	assert.Equal(t, "conv_1", frame["conversation_id"])

	require.NoError(t, client.MarkRead())
	frame, ok = srv.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, "mark_read", frame["action"])
	assert.Equal(t, "conv_1", frame["conversation_id"])
}

func TestInboundFilteredToConversation(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	got := make(chan Message, 2)
	client.OnNewMessage(func(m Message) { got <- m })

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	// A frame for another conversation on the shared per-user socket.
	require.NoError(t, srv.Push(map[string]any{
		"type": "new_message",
		"message": map[string]any{
			"id": "msg_other", "conversation_id": "conv_999", "content": "not mine",
		},
	}))
	require.NoError(t, srv.Push(map[string]any{
		"type": "new_message",
		"message": map[string]any{
			"id": "msg_1", "conversation_id": "conv_1", "content": "mine",
		},
	}))

	select {
	case m := <-got:
		assert.Equal(t, "msg_1", m.ID)
		assert.Equal(t, "mine", m.Content)
	case <-time.After(time.Second):
		t.Fatal("expected the in-conversation message")
	}

	select {
	case m := <-got:
		t.Fatalf("message %q leaked across conversations", m.ID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOnMessageHidden(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	got := make(chan HiddenEvent, 1)
	client.OnMessageHidden(func(ev HiddenEvent) { got <- ev })

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, srv.Push(map[string]any{
		"type":            "message_hidden_for_user",
		"message_id":      "msg_3",
		"conversation_id": "conv_1",
	}))

	select {
	case ev := <-got:
		assert.Equal(t, "msg_3", ev.MessageID)
		assert.Equal(t, "conv_1", ev.ConversationID)
	case <-time.After(time.Second):
		t.Fatal("expected a message_hidden_for_user callback")
	}
}

func TestDuplicateDeliveryDropped(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	got := make(chan Message, 2)
	client.OnNewMessage(func(m Message) { got <- m })

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	push := map[string]any{
		"type": "new_message",
		"message": map[string]any{
			"id": "msg_1", "conversation_id": "conv_1", "content": "hi",
		},
	}
	require.NoError(t, srv.Push(push))
	require.NoError(t, srv.Push(push))

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("expected one delivery")
	}
	select {
	case <-got:
		t.Fatal("duplicate delivery must be dropped")
	case <-time.After(100 * time.Millisecond):
	}
}
