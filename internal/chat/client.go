// Package chat is the project chat channel client. One Client is bound to
// one project room and one credential provider; it is created when the chat
// view opens and disconnected when the view closes.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Sorchess/Picaton-sub002/internal/logging"
	"github.com/Sorchess/Picaton-sub002/internal/rest"
	"github.com/Sorchess/Picaton-sub002/internal/ws"
)

// Config configures a chat client. Channel.Endpoint is derived from
// BaseURL and ProjectID; any value set there is overwritten.
type Config struct {
	ProjectID string
	BaseURL   string
	Channel   ws.Options

	// Fallback, when set, carries SendMessage over REST while the channel
	// is not open. Other operations stay realtime-only.
	Fallback *rest.Client

	// TypingRate throttles outbound typing frames. Zero means the
	// default of one frame per 500ms.
	TypingRate rate.Limit
}

// Client is the project chat channel client.
type Client struct {
	projectID string
	ch        *ws.Channel
	fallback  *rest.Client
	typing    *rate.Limiter
	dedup     *ws.Deduper
	log       *logging.Logger
}

// New creates a chat client for one project room.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("chat: project id required")
	}

	cfg.Channel.Endpoint = ws.Endpoint{
		BaseURL: cfg.BaseURL,
		Path:    "/api/ws/chat/" + cfg.ProjectID,
	}
	if cfg.TypingRate <= 0 {
		cfg.TypingRate = rate.Every(500 * time.Millisecond)
	}
	if cfg.Channel.Logger == nil {
		cfg.Channel.Logger = logging.NewNop()
	}

	return &Client{
		projectID: cfg.ProjectID,
		ch:        ws.NewChannel(cfg.Channel),
		fallback:  cfg.Fallback,
		typing:    rate.NewLimiter(cfg.TypingRate, 1),
		dedup:     ws.NewDeduper(0),
		log:       cfg.Channel.Logger.Named("chat"),
	}, nil
}

// Connect opens the channel. Connecting an already-open client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	return c.ch.Connect(ctx)
}

// Disconnect closes the channel; idempotent.
func (c *Client) Disconnect() {
	c.ch.Disconnect()
}

// State returns the underlying channel state.
func (c *Client) State() ws.State {
	return c.ch.State()
}

// SendMessage sends a chat message, optionally replying to another message.
// While the channel is not open the message goes over the REST fallback if
// one is configured; it is never queued client-side.
func (c *Client) SendMessage(ctx context.Context, content, replyToID string) error {
	err := c.ch.Send("send_message", sendMessageFrame{
		Action:    "send_message",
		Content:   content,
		ReplyToID: replyToID,
	})
	if errors.Is(err, ws.ErrNotOpen) && c.fallback != nil {
		c.log.Debug("channel not open, using rest fallback")
		return c.fallback.PostJSON(ctx, "/api/projects/"+c.projectID+"/messages", map[string]string{
			"content":     content,
			"reply_to_id": replyToID,
		})
	}
	return err
}

// SendTyping sends a typing indicator. Indicators are throttled and
// dropped when the channel is closed; they are advisory only.
func (c *Client) SendTyping(isTyping bool) error {
	if !c.typing.Allow() {
		return nil
	}
	err := c.ch.Send("typing", typingFrame{Action: "typing", IsTyping: isTyping})
	if errors.Is(err, ws.ErrNotOpen) {
		return nil
	}
	return err
}

// EditMessage replaces the content of an existing message.
func (c *Client) EditMessage(messageID, content string) error {
	return c.ch.Send("edit_message", editMessageFrame{
		Action:    "edit_message",
		MessageID: messageID,
		Content:   content,
	})
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(messageID string) error {
	return c.ch.Send("delete_message", deleteMessageFrame{
		Action:    "delete_message",
		MessageID: messageID,
	})
}

// MarkRead marks the room read up to now.
func (c *Client) MarkRead() error {
	return c.ch.Send("mark_read", markReadFrame{Action: "mark_read"})
}

// OnNewMessage registers a handler for incoming messages. Duplicates from
// overlapping reconnects are filtered by message id before fn runs.
func (c *Client) OnNewMessage(fn func(Message)) func() {
	return c.ch.On("new_message", func(raw []byte) {
		var f newMessageFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Warn("bad new_message frame", zap.Error(err))
			return
		}
		if c.dedup.Seen(f.Message.ID) {
			c.log.Debug("duplicate message dropped", zap.String("message_id", f.Message.ID))
			return
		}
		fn(f.Message)
	})
}

// OnTyping registers a handler for typing indicators.
func (c *Client) OnTyping(fn func(TypingEvent)) func() {
	return c.ch.On("typing", func(raw []byte) {
		var ev TypingEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad typing frame", zap.Error(err))
			return
		}
		fn(ev)
	})
}

// OnMessageEdited registers a handler for message edits.
func (c *Client) OnMessageEdited(fn func(EditedEvent)) func() {
	return c.ch.On("message_edited", func(raw []byte) {
		var ev EditedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad message_edited frame", zap.Error(err))
			return
		}
		fn(ev)
	})
}

// OnMessageDeleted registers a handler for message deletions.
func (c *Client) OnMessageDeleted(fn func(DeletedEvent)) func() {
	return c.ch.On("message_deleted", func(raw []byte) {
		var ev DeletedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad message_deleted frame", zap.Error(err))
			return
		}
		fn(ev)
	})
}

// OnPresence registers a handler for user_joined and user_left events.
func (c *Client) OnPresence(fn func(PresenceEvent)) func() {
	parse := func(raw []byte, joined bool) {
		var ev PresenceEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad presence frame", zap.Error(err))
			return
		}
		ev.Joined = joined
		fn(ev)
	}
	offJoin := c.ch.On("user_joined", func(raw []byte) { parse(raw, true) })
	offLeave := c.ch.On("user_left", func(raw []byte) { parse(raw, false) })
	return func() {
		offJoin()
		offLeave()
	}
}

// OnReadReceipt registers a handler for read receipts.
func (c *Client) OnReadReceipt(fn func(ReadReceipt)) func() {
	return c.ch.On("read_receipt", func(raw []byte) {
		var ev ReadReceipt
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad read_receipt frame", zap.Error(err))
			return
		}
		fn(ev)
	})
}

// OnServerError registers a handler for application-level error frames.
func (c *Client) OnServerError(fn func(ErrorEvent)) func() {
	return c.ch.On("error", func(raw []byte) {
		var ev ErrorEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad error frame", zap.Error(err))
			return
		}
		fn(ev)
	})
}
