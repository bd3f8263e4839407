package dm

// Message is one direct message as delivered by the server.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	AuthorID       string `json:"author_id"`
	AuthorName     string `json:"author_name"`
	AuthorAvatar   string `json:"author_avatar"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	ReplyToID      string `json:"reply_to_id,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// TypingEvent signals a user starting or stopping typing in a conversation.
type TypingEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name"`
	IsTyping       bool   `json:"is_typing"`
}

// EditedEvent signals an edit to an existing message.
type EditedEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	NewContent     string `json:"new_content"`
	EditedAt       string `json:"edited_at"`
}

// DeletedEvent signals a message deletion.
type DeletedEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// HiddenEvent signals a message hidden for the current user only.
type HiddenEvent struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
}

// ReadReceipt signals the peer read the conversation up to ReadAt.
type ReadReceipt struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	ReadAt         string `json:"read_at"`
}

// ErrorEvent is an application-level error frame.
type ErrorEvent struct {
	Message string `json:"message"`
}

type newMessageFrame struct {
	Message Message `json:"message"`
}

// Outbound frames carry the conversation id: the DM socket is shared per
// user, not per conversation, so the server needs the scope on every frame.

type sendMessageFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	ReplyToID      string `json:"reply_to_id,omitempty"`
}

type typingFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type editMessageFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Content        string `json:"content"`
}

type deleteMessageFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

type markReadFrame struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
}
