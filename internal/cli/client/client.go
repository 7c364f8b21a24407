package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is an HTTP client for the StackFinder admin API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. baseURL has already been normalized to end
// in /api.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// MeResponse is the who-am-I wire shape.
type MeResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
	Message string `json:"message"`
}

// Me resolves the session token to an admin identity.
func (c *Client) Me(token string) (*MeResponse, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/admin/me", c.baseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var meResp MeResponse
	if err := json.NewDecoder(resp.Body).Decode(&meResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &meResp, nil
}

// RebuildSitemap asks the backend to rebuild the cached sitemap.
func (c *Client) RebuildSitemap(token string) error {
	return c.postAccepted(token, "/admin/sitemap/rebuild")
}

// AuditImages asks the backend to re-audit product image URLs.
func (c *Client) AuditImages(token string) error {
	return c.postAccepted(token, "/admin/images/audit")
}

func (c *Client) postAccepted(token, path string) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
