package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meditrack/lifeline/core/model"
)

// Config points at the REST service holding fleet and request snapshots.
type Config struct {
	BaseURL  string `json:"base_url"`
	TimeoutS int    `json:"timeout_s"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutS == 0 {
		c.TimeoutS = 10
	}
}

// Client fetches the initial ambulance fleet and open requests from the
// hospital backend. The real-time core takes over from there; the client is
// only used at startup.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a Client for the configured backend.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{
		base: strings.TrimSuffix(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutS) * time.Second},
	}
}

// Fleet fetches the ambulance fleet.
func (c *Client) Fleet(ctx context.Context) ([]model.Ambulance, error) {
	var out []model.Ambulance
	if err := c.get(ctx, "/api/ambulances", &out); err != nil {
		return nil, fmt.Errorf("fetch fleet: %w", err)
	}
	return out, nil
}

// OpenRequests fetches transport requests that are not yet terminal.
func (c *Client) OpenRequests(ctx context.Context) ([]model.AmbulanceRequest, error) {
	var out []model.AmbulanceRequest
	if err := c.get(ctx, "/api/ambulances/requests?open=true", &out); err != nil {
		return nil, fmt.Errorf("fetch open requests: %w", err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
