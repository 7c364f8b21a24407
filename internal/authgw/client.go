// Package authgw is an HTTP client for the hosted auth provider. The provider
// owns the session lifecycle; this service only reads sessions and revokes
// them on authorization failure.
package authgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrMissingConfig is returned when the provider URL or public key is
	// absent. Client construction fails fast rather than degrading.
	ErrMissingConfig = errors.New("auth provider URL and public key are required")

	// ErrUnauthorized is returned when the provider rejects the token.
	ErrUnauthorized = errors.New("session token rejected by auth provider")
)

// User is the provider's view of an authenticated identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Client talks to the auth provider's REST API. Construct one at the
// composition root and inject it; there is no package-level instance.
type Client struct {
	baseURL    string
	publicKey  string
	httpClient *http.Client
}

// New creates a provider client. Returns ErrMissingConfig when either value
// is blank.
func New(providerURL, publicKey string) (*Client, error) {
	if providerURL == "" || publicKey == "" {
		return nil, ErrMissingConfig
	}
	return &Client{
		baseURL:   providerURL,
		publicKey: publicKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// GetUser resolves a session token to the identity it proves. A transport
// failure is returned as-is; a provider rejection is ErrUnauthorized.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setAuthHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session behind the token. Revoking an already-dead
// session is not an error.
func (c *Client) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setAuthHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusUnauthorized:
		return nil
	default:
		return fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}
}

func (c *Client) setAuthHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.publicKey)
}
