// Package auth defines the credential lookup used by channel clients.
//
// Tokens are minted and persisted elsewhere; this layer only reads the
// current one at connect time, so a refreshed token is picked up by the
// next reconnect attempt.
package auth

import (
	"context"
	"errors"
)

// ErrNoToken is returned when no credential is currently available.
var ErrNoToken = errors.New("auth: no token available")

// TokenProvider supplies the current credential for a connection attempt.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token, useful for tests and CLI tools.
type Static string

// Token implements TokenProvider.
func (s Static) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// Func adapts a function to the TokenProvider interface.
type Func func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f Func) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
