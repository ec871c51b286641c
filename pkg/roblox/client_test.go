package roblox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestCookieHeader checks prefix normalization
func TestCookieHeader(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"bare token", "abc123", ".ROBLOSECURITY=abc123"},
		{"already prefixed", ".ROBLOSECURITY=abc123", ".ROBLOSECURITY=abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CookieHeader(tt.token); got != tt.want {
				t.Errorf("CookieHeader(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func newTestClient(auth, thumb http.HandlerFunc) (*Client, func()) {
	authServer := httptest.NewServer(auth)
	thumbServer := httptest.NewServer(thumb)
	client := &Client{
		HTTPClient:   authServer.Client(),
		AuthURL:      authServer.URL,
		ThumbnailURL: thumbServer.URL,
	}
	return client, func() {
		authServer.Close()
		thumbServer.Close()
	}
}

// TestValidateToken checks the happy path including the thumbnail
func TestValidateToken(t *testing.T) {
	client, cleanup := newTestClient(
		func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Cookie") != ".ROBLOSECURITY=good-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"id":12345,"name":"builderman","displayName":"Builderman"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("userIds") != "12345" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"data":[{"targetId":12345,"state":"Completed","imageUrl":"https://cdn.example.com/h.png"}]}`))
		},
	)
	defer cleanup()

	user, err := client.ValidateToken(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if user.ID != 12345 || user.Username != "builderman" || user.DisplayName != "Builderman" {
		t.Errorf("ValidateToken() = %+v, want builderman/12345", user)
	}
	if user.Thumbnail == nil || *user.Thumbnail != "https://cdn.example.com/h.png" {
		t.Errorf("ValidateToken() thumbnail = %v, want resolved URL", user.Thumbnail)
	}
}

// TestValidateTokenRejected checks the invalid-token path
func TestValidateTokenRejected(t *testing.T) {
	client, cleanup := newTestClient(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		func(w http.ResponseWriter, r *http.Request) {},
	)
	defer cleanup()

	_, err := client.ValidateToken(context.Background(), "bad-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

// TestValidateTokenThumbnailFailure checks the thumbnail is best-effort
func TestValidateTokenThumbnailFailure(t *testing.T) {
	client, cleanup := newTestClient(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":7,"name":"alice","displayName":"Alice"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	)
	defer cleanup()

	user, err := client.ValidateToken(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if user.Thumbnail != nil {
		t.Errorf("ValidateToken() thumbnail = %v, want nil on lookup failure", *user.Thumbnail)
	}
}
