package genstream

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTagDebounce is the idle window after a content edit before a
// suggest_tags request fires.
const DefaultTagDebounce = 1500 * time.Millisecond

// TagSuggestion is one suggested profile tag.
type TagSuggestion struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

type tagsUpdateFrame struct {
	Tags []TagSuggestion `json:"tags"`
}

type suggestTagsFrame struct {
	Action  string `json:"action"`
	BioText string `json:"bio_text"`
}

// tagRequester debounces suggest_tags requests against content edits. It
// carries its own loading flag, unrelated to the generation state machine.
type tagRequester struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	loading bool
}

func (t *tagRequester) schedule(fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.delay, fire)
}

func (t *tagRequester) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.loading = false
}

func (t *tagRequester) setLoading(v bool) {
	t.mu.Lock()
	t.loading = v
	t.mu.Unlock()
}

func (t *tagRequester) isLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// NoteContentEdited restarts the debounce window with the latest content.
// Once the caller stops editing for the debounce duration, a suggest_tags
// request fires with the final text.
func (c *Client) NoteContentEdited(bioText string) {
	c.tags.schedule(func() {
		if err := c.SuggestTags(bioText); err != nil {
			c.log.Debug("debounced tag suggestion skipped", zap.Error(err))
		}
	})
}

// SuggestTags requests tag suggestions for bioText immediately.
func (c *Client) SuggestTags(bioText string) error {
	c.tags.setLoading(true)
	err := c.ch.Send("suggest_tags", suggestTagsFrame{
		Action:  "suggest_tags",
		BioText: bioText,
	})
	if err != nil {
		c.tags.setLoading(false)
		return err
	}
	return nil
}

// TagsLoading reports whether a tag suggestion request is in flight.
func (c *Client) TagsLoading() bool {
	return c.tags.isLoading()
}

func (c *Client) handleTagsUpdate(raw []byte) {
	var f tagsUpdateFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		c.log.Warn("bad tags_update frame", zap.Error(err))
		return
	}

	c.tags.setLoading(false)
	if c.cb.OnTags != nil {
		c.cb.OnTags(f.Tags)
	}
}
