package ws

import "time"

// Default reconnection policy parameters.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
)

// ReconnectPolicy decides whether and when to retry after an unexpected
// close. It applies only to unexpected closes: caller-initiated disconnects
// and normal-closure codes never trigger a retry.
type ReconnectPolicy struct {
	// MaxAttempts bounds consecutive retries. Once reached the channel
	// stays disconnected until the caller reconnects manually.
	MaxAttempts int

	// BaseDelay is multiplied by the attempt ordinal: the first retry
	// waits BaseDelay, the second 2*BaseDelay, and so on.
	BaseDelay time.Duration
}

// DefaultReconnectPolicy returns the policy used when none is configured.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// ShouldRetry reports whether another attempt is allowed after `attempt`
// consecutive failures.
func (p ReconnectPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}

// Delay returns the wait before retry number attempt+1.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt+1)
}
