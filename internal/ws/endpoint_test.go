package ws

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		token    string
		want     string
	}{
		{
			name:     "chat room",
			endpoint: Endpoint{BaseURL: "wss://api.picaton.app", Path: "/api/ws/chat/proj_1"},
			token:    "tok",
			want:     "wss://api.picaton.app/api/ws/chat/proj_1?token=tok",
		},
		{
			name:     "https rewritten to wss",
			endpoint: Endpoint{BaseURL: "https://api.picaton.app", Path: "/api/ws/dm"},
			token:    "tok",
			want:     "wss://api.picaton.app/api/ws/dm?token=tok",
		},
		{
			name:     "http rewritten to ws",
			endpoint: Endpoint{BaseURL: "http://127.0.0.1:8080", Path: "/api/ws/dm"},
			token:    "tok",
			want:     "ws://127.0.0.1:8080/api/ws/dm?token=tok",
		},
		{
			name: "card stream with owner id",
			endpoint: Endpoint{
				BaseURL: "wss://api.picaton.app",
				Path:    "/api/ws/cards/card_9",
				Query:   url.Values{"owner_id": []string{"user_3"}},
			},
			token: "tok",
			want:  "wss://api.picaton.app/api/ws/cards/card_9?owner_id=user_3&token=tok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.endpoint.URL(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpointURLEscapesToken(t *testing.T) {
	e := Endpoint{BaseURL: "wss://api.picaton.app", Path: "/api/ws/dm"}

	got, err := e.URL("a b&c")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "a b&c", u.Query().Get("token"))
}

func TestEndpointURLRejectsBadScheme(t *testing.T) {
	e := Endpoint{BaseURL: "ftp://api.picaton.app", Path: "/api/ws/dm"}

	_, err := e.URL("tok")
	assert.Error(t, err)
}
