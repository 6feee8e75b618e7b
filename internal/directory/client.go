package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the user service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return c.getProfile(ctx, "/internal/users/"+id.String())
}

func (c *Client) ByUsername(ctx context.Context, username string) (*Profile, error) {
	return c.getProfile(ctx, "/internal/users/by-username/"+url.PathEscape(username))
}

func (c *Client) PublicByUsername(ctx context.Context, username string) (*Profile, error) {
	return c.getProfile(ctx, "/public/users/by-username/"+url.PathEscape(username))
}

func (c *Client) UpdateAccountStatus(ctx context.Context, id uuid.UUID, reason StatusReason) error {
	endpoint := fmt.Sprintf("%s/internal/users/%s/status?reason=%s", c.baseURL, id, url.QueryEscape(string(reason)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("update account status: unexpected status %d", resp.StatusCode)
	}
	zap.L().Info("account status updated", zap.String("user_id", id.String()), zap.String("reason", string(reason)))
	return nil
}

func (c *Client) getProfile(ctx context.Context, path string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProfileNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}
