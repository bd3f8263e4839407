// Package dm is the direct-message channel client. The socket endpoint is
// per-user; each Client is additionally scoped to one conversation and
// filters inbound events to it.
package dm

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

// Config configures a DM client. Channel.Endpoint is derived from BaseURL;
// any value set there is overwritten.
type Config struct {
	ConversationID string
	BaseURL        string
	Channel        ws.Options

	// Fallback, when set, carries SendMessage over REST while the channel
	// is not open.
	Fallback *rest.Client

	// TypingRate throttles outbound typing frames. Zero means the
	// default of one frame per 500ms.
	TypingRate rate.Limit
}

// Client is the direct-message channel client.
type Client struct {
	conversationID string
	ch             *ws.Channel
	fallback       *rest.Client
	typing         *rate.Limiter
	dedup          *ws.Deduper
	log            *logging.Logger
}

// New creates a DM client bound to one conversation.
func New(cfg Config) (*Client, error) {
	if cfg.ConversationID == "" {
		return nil, errors.New("dm: conversation id required")
	}

	cfg.Channel.Endpoint = ws.Endpoint{
		BaseURL: cfg.BaseURL,
		Path:    "/api/ws/dm",
	}
	if cfg.TypingRate <= 0 {
		cfg.TypingRate = rate.Every(500 * time.Millisecond)
	}
	if cfg.Channel.Logger == nil {
		cfg.Channel.Logger = logging.NewNop()
	}

	return &Client{
		conversationID: cfg.ConversationID,
		ch:             ws.NewChannel(cfg.Channel),
		fallback:       cfg.Fallback,
		typing:         rate.NewLimiter(cfg.TypingRate, 1),
		dedup:          ws.NewDeduper(0),
		log:            cfg.Channel.Logger.Named("dm"),
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

// SendMessage sends a direct message. While the channel is not open the
// message goes over the REST fallback if one is configured; it is never
// queued client-side.
func (c *Client) SendMessage(ctx context.Context, content, replyToID string) error {
	err := c.ch.Send("send_message", sendMessageFrame{
		Action:         "send_message",
		ConversationID: c.conversationID,
		Content:        content,
		ReplyToID:      replyToID,
	})
	if errors.Is(err, ws.ErrNotOpen) && c.fallback != nil {
		c.log.Debug("channel not open, using rest fallback")
		return c.fallback.PostJSON(ctx, "/api/conversations/"+c.conversationID+"/messages", map[string]string{
			"content":     content,
			"reply_to_id": replyToID,
		})
	}
	return err
}

// SendTyping sends a typing indicator; throttled, advisory only.
func (c *Client) SendTyping(isTyping bool) error {
	if !c.typing.Allow() {
		return nil
	}
	err := c.ch.Send("typing", typingFrame{
		Action:         "typing",
		ConversationID: c.conversationID,
		IsTyping:       isTyping,
	})
	if errors.Is(err, ws.ErrNotOpen) {
		return nil
	}
	return err
}

// EditMessage replaces the content of an existing message.
func (c *Client) EditMessage(messageID, content string) error {
	return c.ch.Send("edit_message", editMessageFrame{
		Action:         "edit_message",
		ConversationID: c.conversationID,
		MessageID:      messageID,
		Content:        content,
	})
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(messageID string) error {
	return c.ch.Send("delete_message", deleteMessageFrame{
		Action:         "delete_message",
		ConversationID: c.conversationID,
		MessageID:      messageID,
	})
}

// MarkRead marks the conversation read up to now.
func (c *Client) MarkRead() error {
	return c.ch.Send("mark_read", markReadFrame{
		Action:         "mark_read",
		ConversationID: c.conversationID,
	})
}

// inConversation reports whether an event belongs to this client's
// conversation. Frames without a conversation id pass through.
func (c *Client) inConversation(conversationID string) bool {
	return conversationID == "" || conversationID == c.conversationID
}

// OnNewMessage registers a handler for incoming messages, filtered to this
// conversation and deduplicated by message id.
func (c *Client) OnNewMessage(fn func(Message)) func() {
	return c.ch.On("new_message", func(raw []byte) {
		var f newMessageFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Warn("bad new_message frame", zap.Error(err))
			return
		}
		if !c.inConversation(f.Message.ConversationID) {
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
		if !c.inConversation(ev.ConversationID) {
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
		if !c.inConversation(ev.ConversationID) {
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
		if !c.inConversation(ev.ConversationID) {
			return
		}
		fn(ev)
	})
}

// OnMessageHidden registers a handler for messages hidden for the current
// user only.
func (c *Client) OnMessageHidden(fn func(HiddenEvent)) func() {
	return c.ch.On("message_hidden_for_user", func(raw []byte) {
		var ev HiddenEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad message_hidden_for_user frame", zap.Error(err))
			return
		}
		if !c.inConversation(ev.ConversationID) {
			return
		}
		fn(ev)
	})
}

// OnReadReceipt registers a handler for read receipts.
func (c *Client) OnReadReceipt(fn func(ReadReceipt)) func() {
	return c.ch.On("read_receipt", func(raw []byte) {
		var ev ReadReceipt
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("bad read_receipt frame", zap.Error(err))
			return
		}
		if !c.inConversation(ev.ConversationID) {
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
