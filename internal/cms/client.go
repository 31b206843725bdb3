// Package cms is the HTTP client for the headless CMS that owns the catalog
// (gowns, add-on accessories, collections). The backend only reads; all
// authoring happens in the CMS, which notifies us of changes via webhook.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lumiere-atelier/backend/internal/models"
)

// ErrNotFound is returned when the CMS reports 404 for a requested entry.
var ErrNotFound = errors.New("cms: not found")

// Client calls the CMS content API.
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
}

// NewClient creates a CMS client.
func NewClient(baseURL, apiToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		http:     &http.Client{Timeout: timeout},
	}
}

// ListGowns fetches gowns, optionally filtered by category.
func (c *Client) ListGowns(ctx context.Context, category string) ([]models.Gown, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	var out []models.Gown
	if err := c.get(ctx, "/api/gowns", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGownBySlug fetches a single gown.
func (c *Client) GetGownBySlug(ctx context.Context, slug string) (*models.Gown, error) {
	var out models.Gown
	if err := c.get(ctx, "/api/gowns/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAddons fetches add-on accessories.
func (c *Client) ListAddons(ctx context.Context) ([]models.Addon, error) {
	var out []models.Addon
	if err := c.get(ctx, "/api/addons", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCollections fetches gown collections.
func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var out []models.Collection
	if err := c.get(ctx, "/api/collections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cms request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("cms status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode cms response: %w", err)
	}
	return nil
}
