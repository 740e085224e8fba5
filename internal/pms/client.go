// Package pms integrates the third-party property-management system: an
// authenticated paginated REST client for polling and an HMAC-verified
// webhook for incremental sync.
package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultPageSize = 100

// APIError is a non-2xx response from the PMS.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pms: status %d: %s", e.StatusCode, e.Body)
}

// terminalStatus reports whether a response must not be retried: malformed
// requests and auth failures will not heal on their own.
func terminalStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return code >= 400 && code < 500
}

type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	exec     *retry.Executor
	log      *zap.Logger
	pageSize int
}

func New(cfg config.Config, exec *retry.Executor, log *zap.Logger) *Client {
	return &Client{
		baseURL:  cfg.PMSBaseURL,
		token:    cfg.PMSToken,
		http:     &http.Client{Timeout: 30 * time.Second},
		exec:     exec,
		log:      log.Named("pms"),
		pageSize: defaultPageSize,
	}
}

var Module = fx.Provide(New)

// get performs a single request without retrying; classification for the
// retry executor happens here.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return retry.Terminal(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		if terminalStatus(resp.StatusCode) {
			return retry.Terminal(apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode pms response: %w", err)
	}
	return nil
}

func (c *Client) getWithRetry(ctx context.Context, label, path string, out any) error {
	return c.exec.Do(ctx, label, func(ctx context.Context) error {
		return c.get(ctx, path, out)
	})
}

// Health probes the PMS availability endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.getWithRetry(ctx, "pms.health", "/health", nil)
}

// Facilities lists all facilities, following pagination to the end.
func (c *Client) Facilities(ctx context.Context) ([]Facility, error) {
	var all []Facility
	for page := 1; ; page++ {
		var batch []Facility
		path := fmt.Sprintf("/facilities?page=%d&per_page=%d", page, c.pageSize)
		if err := c.getWithRetry(ctx, "pms.facilities", path, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < c.pageSize {
			return all, nil
		}
	}
}

// Facility fetches one facility by the PMS's own id.
func (c *Client) Facility(ctx context.Context, id string) (*Facility, error) {
	var facility Facility
	if err := c.getWithRetry(ctx, "pms.facility", "/facilities/"+id, &facility); err != nil {
		return nil, err
	}
	return &facility, nil
}

// FacilityTenants lists all tenants of a facility, following pagination.
func (c *Client) FacilityTenants(ctx context.Context, facilityID string) ([]Tenant, error) {
	var all []Tenant
	for page := 1; ; page++ {
		var batch []Tenant
		path := fmt.Sprintf("/facilities/%s/tenants?page=%d&per_page=%d", facilityID, page, c.pageSize)
		if err := c.getWithRetry(ctx, "pms.facility_tenants", path, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < c.pageSize {
			return all, nil
		}
	}
}

// Tenant fetches one tenant by id.
func (c *Client) Tenant(ctx context.Context, id string) (*Tenant, error) {
	var tenant Tenant
	if err := c.getWithRetry(ctx, "pms.tenant", "/tenants/"+id, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}
