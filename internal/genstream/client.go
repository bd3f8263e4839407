// Package genstream is the AI generation-stream channel client. It extends
// the shared channel core with incremental chunk accumulation and exact
// rollback: content after a failed or cancelled session is byte-identical
// to what the caller had before the generate request was sent.
package genstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sorchess/Picaton-sub002/internal/logging"
	"github.com/Sorchess/Picaton-sub002/internal/monitoring"
	"github.com/Sorchess/Picaton-sub002/internal/ws"
)

// ErrGenerationInProgress is returned by Generate while a session is
// already streaming. Concurrent sessions on one client are disallowed.
var ErrGenerationInProgress = errors.New("genstream: generation already in progress")

// Callbacks deliver session results to the caller. All fire from the read
// goroutine; keep them short or hand off.
type Callbacks struct {
	// OnChunk fires after each accumulated chunk with the running content.
	OnChunk func(partial string)

	// OnCommitted fires once with the final content when the session
	// completes.
	OnCommitted func(full string)

	// OnRolledBack fires once with the restored pre-stream content when
	// the session fails or is cancelled.
	OnRolledBack func(restored string)

	// OnTags fires with fresh tag suggestions; independent of the
	// generation session.
	OnTags func([]TagSuggestion)

	// OnStreamError fires for application-level error frames.
	OnStreamError func(message string)
}

// Config configures a generation-stream client. Channel.Endpoint is derived
// from BaseURL, CardID, and OwnerID; any value set there is overwritten.
type Config struct {
	CardID  string
	OwnerID string
	BaseURL string
	Channel ws.Options

	// TagDebounce is the idle window after a content edit before a tag
	// suggestion request fires. Zero means the default of 1500ms.
	TagDebounce time.Duration

	Callbacks Callbacks
}

// Client is the generation-stream channel client, bound to one card.
type Client struct {
	cardID  string
	ch      *ws.Channel
	log     *logging.Logger
	metrics *monitoring.Metrics
	cb      Callbacks

	mu         sync.Mutex
	generating bool
	session    uuid.UUID
	acc        Accumulator

	tags tagRequester
}

type chunkFrame struct {
	Content string `json:"content"`
}

type completeFrame struct {
	FullBio string `json:"full_bio"`
}

type errorFrame struct {
	Message string `json:"message"`
}

type generateFrame struct {
	Action string `json:"action"`
}

// New creates a generation-stream client for one card.
func New(cfg Config) (*Client, error) {
	if cfg.CardID == "" {
		return nil, errors.New("genstream: card id required")
	}

	query := url.Values{}
	if cfg.OwnerID != "" {
		query.Set("owner_id", cfg.OwnerID)
	}
	cfg.Channel.Endpoint = ws.Endpoint{
		BaseURL: cfg.BaseURL,
		Path:    "/api/ws/cards/" + cfg.CardID,
		Query:   query,
	}
	if cfg.Channel.Logger == nil {
		cfg.Channel.Logger = logging.NewNop()
	}
	if cfg.TagDebounce <= 0 {
		cfg.TagDebounce = DefaultTagDebounce
	}

	c := &Client{
		cardID:  cfg.CardID,
		ch:      ws.NewChannel(cfg.Channel),
		log:     cfg.Channel.Logger.Named("genstream"),
		metrics: cfg.Channel.Metrics,
		cb:      cfg.Callbacks,
	}
	c.tags.delay = cfg.TagDebounce
	c.registerHandlers()
	return c, nil
}

func (c *Client) registerHandlers() {
	c.ch.On("start", func(raw []byte) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.generating {
			return
		}
		// Generation actually started server-side; drop anything buffered
		// from a superseded attempt.
		c.acc.Restart()
		c.log.Debug("stream started", zap.String("session", c.session.String()))
	})

	c.ch.On("chunk", func(raw []byte) {
		var f chunkFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Warn("bad chunk frame", zap.Error(err))
			return
		}

		c.mu.Lock()
		if !c.generating {
			c.mu.Unlock()
			c.log.Debug("stale chunk discarded")
			return
		}
		c.acc.Append(f.Content)
		partial := c.acc.Content()
		c.mu.Unlock()

		c.metrics.ChunkAccumulated()
		if c.cb.OnChunk != nil {
			c.cb.OnChunk(partial)
		}
	})

	c.ch.On("complete", func(raw []byte) {
		var f completeFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Warn("bad complete frame", zap.Error(err))
			return
		}

		c.mu.Lock()
		if !c.generating {
			c.mu.Unlock()
			c.log.Debug("stale complete discarded")
			return
		}
		full := c.acc.Commit(f.FullBio)
		session := c.session
		c.generating = false
		c.mu.Unlock()

		c.log.Info("generation committed",
			zap.String("session", session.String()),
			zap.Int("bytes", len(full)),
		)
		if c.cb.OnCommitted != nil {
			c.cb.OnCommitted(full)
		}
	})

	c.ch.On("error", func(raw []byte) {
		var f errorFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Warn("bad error frame", zap.Error(err))
			return
		}

		restored, rolledBack := c.rollback("server error")
		if rolledBack && c.cb.OnRolledBack != nil {
			c.cb.OnRolledBack(restored)
		}
		if c.cb.OnStreamError != nil {
			c.cb.OnStreamError(f.Message)
		}
	})

	c.ch.On("tags_update", func(raw []byte) {
		c.handleTagsUpdate(raw)
	})
}

// Connect opens the channel. Connecting while already connected to this
// card is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	return c.ch.Connect(ctx)
}

// Disconnect rolls back any in-flight session, cancels a pending tag
// request, and closes the channel. Idempotent.
func (c *Client) Disconnect() {
	restored, rolledBack := c.rollback("disconnect")
	c.tags.stop()
	c.ch.Disconnect()
	if rolledBack && c.cb.OnRolledBack != nil {
		c.cb.OnRolledBack(restored)
	}
}

// State returns the underlying channel state.
func (c *Client) State() ws.State {
	return c.ch.State()
}

// Generating reports whether a session is currently streaming.
func (c *Client) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Generate starts one generation session. The current caller content is
// snapshotted synchronously, before the request goes out, so rollback is
// exact even if the server errors immediately. Only one session may run at
// a time.
func (c *Client) Generate(current string) error {
	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return ErrGenerationInProgress
	}
	c.generating = true
	c.session = uuid.New()
	session := c.session
	c.acc.Begin(current)
	c.mu.Unlock()

	if err := c.ch.Send("generate_bio", generateFrame{Action: "generate_bio"}); err != nil {
		restored, rolledBack := c.rollback("send failed")
		if rolledBack && c.cb.OnRolledBack != nil {
			c.cb.OnRolledBack(restored)
		}
		return err
	}

	c.log.Info("generation requested", zap.String("session", session.String()))
	return nil
}

// Cancel rolls back the in-flight session, if any. Cancellation is
// local-only: the server keeps streaming, and the superseded session's
// chunk and complete frames are discarded as stale.
func (c *Client) Cancel() {
	restored, rolledBack := c.rollback("cancelled")
	if rolledBack && c.cb.OnRolledBack != nil {
		c.cb.OnRolledBack(restored)
	}
}

// rollback ends the current session, restoring the snapshot. Returns the
// restored content and whether a session was actually active.
func (c *Client) rollback(reason string) (string, bool) {
	c.mu.Lock()
	if !c.generating {
		c.mu.Unlock()
		return "", false
	}
	restored := c.acc.Rollback()
	session := c.session
	c.generating = false
	c.mu.Unlock()

	c.metrics.StreamRolledBack()
	c.log.Info("generation rolled back",
		zap.String("session", session.String()),
		zap.String("reason", reason),
	)
	return restored, true
}
