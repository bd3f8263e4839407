package chat

// Message is one project chat message as delivered by the server.
type Message struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	AuthorID     string `json:"author_id"`
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
	Content      string `json:"content"`
	MessageType  string `json:"message_type"`
	ReplyToID    string `json:"reply_to_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// TypingEvent signals a user starting or stopping typing.
type TypingEvent struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

// EditedEvent signals an edit to an existing message.
type EditedEvent struct {
	MessageID  string `json:"message_id"`
	NewContent string `json:"new_content"`
	EditedAt   string `json:"edited_at"`
}

// DeletedEvent signals a message deletion.
type DeletedEvent struct {
	MessageID string `json:"message_id"`
}

// PresenceEvent signals a user joining or leaving the room. Joined is
// derived from the frame type, not the payload.
type PresenceEvent struct {
	UserID      string   `json:"user_id"`
	UserName    string   `json:"user_name"`
	OnlineUsers []string `json:"online_users"`
	Joined      bool     `json:"-"`
}

// ReadReceipt signals that a user read the room up to ReadAt.
type ReadReceipt struct {
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
	ReadAt    string `json:"read_at"`
}

// ErrorEvent is an application-level error frame.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Inbound frame envelopes.

type newMessageFrame struct {
	Message Message `json:"message"`
}

// Outbound frames. Callers never hand-assemble these; the typed send
// helpers are the only producers.

type sendMessageFrame struct {
	Action    string `json:"action"`
	Content   string `json:"content"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

type typingFrame struct {
	Action   string `json:"action"`
	IsTyping bool   `json:"is_typing"`
}

type editMessageFrame struct {
	Action    string `json:"action"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type deleteMessageFrame struct {
	Action    string `json:"action"`
	MessageID string `json:"message_id"`
}

type markReadFrame struct {
	Action string `json:"action"`
}
