package ws

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint identifies one connection target. The token is not stored here;
// it is read from the auth provider at each connect attempt and appended as
// a query parameter.
type Endpoint struct {
	// BaseURL is the scheme and host, e.g. "wss://api.picaton.app".
	// http/https schemes are rewritten to ws/wss.
	BaseURL string

	// Path is the resource path, e.g. "/api/ws/chat/proj_123".
	Path string

	// Query holds extra query parameters (e.g. owner_id for card streams).
	Query url.Values
}

// URL builds the dial URL with the given credential.
func (e Endpoint) URL(token string) (string, error) {
	base := strings.TrimSuffix(e.BaseURL, "/")
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)

	u, err := url.Parse(base + e.Path)
	if err != nil {
		return "", fmt.Errorf("endpoint url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("endpoint url: unsupported scheme %q", u.Scheme)
	}

	q := u.Query()
	for k, vs := range e.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
