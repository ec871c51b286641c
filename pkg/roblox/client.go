// Package roblox is a thin client for the Roblox web endpoints the vault
// depends on: token validation and avatar thumbnail lookup. It performs
// no credential storage of its own.
package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rokio-app/rokioctl/pkg/vault"
)

// Endpoint and cookie constants.
const (
	// SecurityCookieName is the Roblox session cookie name.
	SecurityCookieName = ".ROBLOSECURITY"

	// CookieDomain is the domain the session cookie is scoped to.
	CookieDomain = ".roblox.com"

	defaultAuthURL      = "https://users.roblox.com/v1/users/authenticated"
	defaultThumbnailURL = "https://thumbnails.roblox.com/v1/users/avatar-headshot"
)

// ErrInvalidToken indicates the authentication endpoint rejected the token.
var ErrInvalidToken = errors.New("roblox: session token rejected")

// Client talks to the Roblox web APIs. The URL fields default to the
// production endpoints and are overridable in tests.
type Client struct {
	HTTPClient   *http.Client
	AuthURL      string
	ThumbnailURL string
}

// NewClient returns a client with production endpoints.
func NewClient() *Client {
	return &Client{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		AuthURL:      defaultAuthURL,
		ThumbnailURL: defaultThumbnailURL,
	}
}

// authenticatedUser is the users API response body.
type authenticatedUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// thumbnailResponse is the thumbnails API response body.
type thumbnailResponse struct {
	Data []struct {
		TargetID int64   `json:"targetId"`
		State    string  `json:"state"`
		ImageURL *string `json:"imageUrl"`
	} `json:"data"`
}

// CookieHeader formats a token as the session cookie header value,
// accepting tokens pasted with or without the cookie-name prefix.
func CookieHeader(token string) string {
	if strings.HasPrefix(token, SecurityCookieName+"=") {
		return token
	}
	return SecurityCookieName + "=" + token
}

// ValidateToken checks a candidate session token against the
// authentication endpoint and resolves the account behind it. The
// thumbnail lookup is best-effort; its failure never fails validation.
func (c *Client) ValidateToken(ctx context.Context, token string) (*vault.UserData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AuthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("roblox: failed to build request: %w", err)
	}
	req.Header.Set("Cookie", CookieHeader(token))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roblox: authentication request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roblox: authentication returned status %d", resp.StatusCode)
	}

	var user authenticatedUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("roblox: failed to decode user response: %w", err)
	}

	return &vault.UserData{
		ID:          user.ID,
		Username:    user.Name,
		DisplayName: user.DisplayName,
		Thumbnail:   c.fetchThumbnail(ctx, user.ID),
	}, nil
}

// fetchThumbnail resolves the avatar headshot URL, returning nil on any
// failure.
func (c *Client) fetchThumbnail(ctx context.Context, userID int64) *string {
	query := url.Values{
		"userIds": {fmt.Sprintf("%d", userID)},
		"size":    {"150x150"},
		"format":  {"Png"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.ThumbnailURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body thumbnailResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	if len(body.Data) == 0 || body.Data[0].ImageURL == nil {
		return nil
	}
	return body.Data[0].ImageURL
}
