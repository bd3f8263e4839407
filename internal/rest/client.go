// Package rest is the HTTP fallback used when a realtime channel is not
// open. Channel clients never queue frames; feature operations that must
// not be lost go through this client instead.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Sorchess/Picaton-sub002/internal/auth"
	"github.com/Sorchess/Picaton-sub002/internal/logging"
	"github.com/Sorchess/Picaton-sub002/internal/shared/id"
)

// Config configures the REST fallback client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	Tokens     auth.TokenProvider
	Logger     *logging.Logger
}

// Client wraps resty with auth and bounded retry.
type Client struct {
	http   *resty.Client
	tokens auth.TokenProvider
	log    *logging.Logger
}

// New creates a REST fallback client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   httpClient,
		tokens: cfg.Tokens,
		log:    cfg.Logger.Named("rest"),
	}
}

// PostJSON sends body as JSON to path with the current credential.
func (c *Client) PostJSON(ctx context.Context, path string, body any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("credential: %w", err)
	}

	reqID := id.NewRequestID()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("X-Request-ID", reqID.String()).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		c.log.Warn("fallback request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("request_id", reqID.String()),
		)
		return fmt.Errorf("post %s: status %d", path, resp.StatusCode())
	}

	c.log.Debug("fallback request sent",
		zap.String("path", path),
		zap.String("request_id", reqID.String()),
	)
	return nil
}
