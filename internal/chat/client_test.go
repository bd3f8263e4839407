package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sorchess/Picaton-sub002/internal/auth"
	"github.com/Sorchess/Picaton-sub002/internal/rest"
	"github.com/Sorchess/Picaton-sub002/internal/ws"
	"github.com/Sorchess/Picaton-sub002/internal/ws/wstest"
)

func newTestClient(t *testing.T, srv *wstest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		ProjectID: "proj_1",
		BaseURL:   srv.BaseURL(),
		Channel: ws.Options{
			Tokens:            auth.Static("tok"),
			KeepaliveInterval: time.Hour,
			ConnectTimeout:    2 * time.Second,
		},
	})
	require.NoError(t, err)
	return client
}

func TestNewRequiresProjectID(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSendMessageFrameShape(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, client.SendMessage(context.Background(), "hello", "msg_7"))

	frame, ok := srv.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, "send_message", frame["action"])
	assert.Equal(t, "hello", frame["content"])
	assert.Equal(t, "msg_7", frame["reply_to_id"])
}

func TestSendMessageOmitsEmptyReplyTo(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, client.SendMessage(context.Background(), "hello", ""))

	frame, ok := srv.NextFrame(time.Second)
	require.True(t, ok)
	_, present := frame["reply_to_id"]
	assert.False(t, present)
}

func TestEditDeleteMarkReadFrames(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, client.EditMessage("msg_1", "fixed"))
	frame, ok := srv.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, "edit_message", frame["action"])
	assert.Equal(t, "msg_1", frame["message_id"])
	assert.Equal(t, "fixed", frame["content"])

	require.NoError(t, client.DeleteMessage("msg_1"))
	frame, ok = srv.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, "delete_message", frame["action"])
	assert.Equal(t, "msg_1", frame["message_id"])

	require.NoError(t, client.MarkRead())
	frame, ok = srv.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, "mark_read", frame["action"])
}

func TestSendMessageNotOpenWithoutFallback(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	err := client.SendMessage(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ws.ErrNotOpen)
}

func TestSendMessageFallsBackToREST(t *testing.T) {
	srv := wstest.NewServer(t)

	var mu sync.Mutex
	var gotPath, gotAuth string
	var gotBody map[string]string
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer apiSrv.Close()

	client, err := New(Config{
		ProjectID: "proj_1",
		BaseURL:   srv.BaseURL(),
		Channel: ws.Options{
			Tokens:            auth.Static("tok"),
			KeepaliveInterval: time.Hour,
		},
		Fallback: rest.New(rest.Config{
			BaseURL: apiSrv.URL,
			Tokens:  auth.Static("tok"),
		}),
	})
	require.NoError(t, err)

	// Channel never connected: the message must go over REST.
	require.NoError(t, client.SendMessage(context.Background(), "offline hello", ""))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/api/projects/proj_1/messages", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "offline hello", gotBody["content"])
}

func TestTypingThrottled(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	// Burst of keypress notifications; only the first goes out.
	require.NoError(t, client.SendTyping(true))
	require.NoError(t, client.SendTyping(true))
	require.NoError(t, client.SendTyping(true))

	frame, ok := srv.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, "typing", frame["action"])

	assert.True(t, srv.NoFrame(100*time.Millisecond))
}

func TestTypingWhileClosedIsNoOp(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	assert.NoError(t, client.SendTyping(true))
}

func TestOnNewMessageRoutesAndDeduplicates(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	got := make(chan Message, 4)
	client.OnNewMessage(func(m Message) { got <- m })

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	push := map[string]any{
		"type": "new_message",
		"message": map[string]any{
			"id":          "msg_1",
			"project_id":  "proj_1",
			"author_id":   "user_2",
			"author_name": "Ada",
			"content":     "hi",
			"created_at":  "2026-08-23T10:00:00Z",
		},
	}
	require.NoError(t, srv.Push(push))
	require.NoError(t, srv.Push(push)) // duplicate delivery after overlap

	select {
	case m := <-got:
		assert.Equal(t, "msg_1", m.ID)
		assert.Equal(t, "Ada", m.AuthorName)
		assert.Equal(t, "hi", m.Content)
	case <-time.After(time.Second):
		t.Fatal("expected a new_message callback")
	}

	select {
	case <-got:
		t.Fatal("duplicate message must be dropped")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOnPresenceCoversJoinAndLeave(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	got := make(chan PresenceEvent, 2)
	client.OnPresence(func(ev PresenceEvent) { got <- ev })

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, srv.Push(map[string]any{
		"type": "user_joined", "user_id": "u1", "user_name": "Ada",
		"online_users": []string{"u1"},
	}))
	require.NoError(t, srv.Push(map[string]any{
		"type": "user_left", "user_id": "u1", "user_name": "Ada",
		"online_users": []string{},
	}))

	ev := <-got
	assert.True(t, ev.Joined)
	assert.Equal(t, "u1", ev.UserID)

	ev = <-got
	assert.False(t, ev.Joined)
}

func TestOnServerError(t *testing.T) {
	srv := wstest.NewServer(t)
	client := newTestClient(t, srv)

	got := make(chan ErrorEvent, 1)
	client.OnServerError(func(ev ErrorEvent) { got <- ev })

	require.NoError(t, client.Connect(context.Background()))
	defer client.Disconnect()

	require.NoError(t, srv.Push(map[string]any{"type": "error", "message": "room archived"}))

	select {
	case ev := <-got:
		assert.Equal(t, "room archived", ev.Message)
	case <-time.After(time.Second):
		t.Fatal("expected an error callback")
	}
}
