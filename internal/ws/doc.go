// Package ws implements the shared reconnecting WebSocket core used by the
// chat, direct-message, and generation-stream channel clients.
//
// A Channel owns exactly one transport socket, one keepalive ticker, and one
// pending reconnect timer. State transitions are serialized under a single
// mutex:
//
//	Disconnected -> Connecting -> Open -> (Disconnected | Connecting[reconnect])
//
// Reconnection applies only to unexpected closes. Each unexpected close
// schedules one retry with delay = BaseDelay * (attempt+1) until MaxAttempts
// is reached, after which OnDisconnected fires and no further automatic
// retries happen. A successful open resets the attempt counter. Disconnect
// cancels any pending retry so a scheduled attempt cannot resurrect a
// connection the caller closed.
//
// Wire protocol is JSON frames. Inbound frames carry a "type" discriminant
// routed by the Dispatcher; outbound frames carry an "action" discriminant
// and are always built by the feature clients' typed helpers. Sends while
// the channel is not open return ErrNotOpen and are never queued.
//
// Message Types (Server -> Client, feature-dependent):
//   - new_message, typing, message_edited, message_deleted
//   - user_joined, user_left, read_receipt
//   - chunk, complete, tags_update, start
//   - pong: intercepted by the dispatcher, never forwarded
//   - error: routed to handlers like any other type
//
// Message Types (Client -> Server):
//   - send_message, typing, edit_message, delete_message, mark_read
//   - generate_bio, suggest_tags
//   - ping: emitted by the keepalive ticker while open
package ws
