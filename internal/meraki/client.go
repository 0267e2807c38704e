// Package meraki fetches the device inventory from the Meraki Dashboard API.
package meraki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rdelgado/meraki-snipeit-sync/internal/config"
	"github.com/rdelgado/meraki-snipeit-sync/internal/models"
)

// Client talks to the Meraki Dashboard API for a single organization.
type Client struct {
	baseURL    string
	apiKey     string
	orgID      string
	perPage    int
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a Meraki client from config.
func NewClient(cfg config.MerakiConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		orgID:   cfg.OrganizationID,
		perPage: cfg.PerPage,
		httpClient: &http.Client{
			Timeout: cfg.Timeout.Std(),
		},
		log: log.With().Str("component", "meraki").Logger(),
	}
}

// ListOrganizationDevices returns the complete device inventory of the
// organization, following startingAfter pagination until the last page. The
// order of the returned slice is the order the API yields; the sync driver
// preserves it. Any failure here is fatal to the run.
func (c *Client) ListOrganizationDevices(ctx context.Context) ([]models.Device, error) {
	var all []models.Device
	startingAfter := ""

	for {
		params := url.Values{}
		params.Set("perPage", fmt.Sprintf("%d", c.perPage))
		if startingAfter != "" {
			params.Set("startingAfter", startingAfter)
		}

		page, err := c.getDevices(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < c.perPage {
			break
		}
		startingAfter = page[len(page)-1].Serial
	}

	c.log.Debug().Int("devices", len(all)).Msg("fetched organization devices")
	return all, nil
}

func (c *Client) getDevices(ctx context.Context, params url.Values) ([]models.Device, error) {
	u := fmt.Sprintf("%s/organizations/%s/devices?%s", c.baseURL, c.orgID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET organization devices: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET organization devices: HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var devices []models.Device
	if err := json.Unmarshal(body, &devices); err != nil {
		return nil, fmt.Errorf("parsing device list: %w", err)
	}
	return devices, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
