// Package backend provides a claims data source and sink backed by the
// upstream claims REST service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jayawardhanm/jay-claimsub-ai/internal/domain/claims"
)

const defaultTimeout = 15 * time.Second

// ClientOption configures the backend client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used in tests and when
// the caller needs custom transport settings.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// Client talks to the upstream claims service. It implements both the
// claims.DataSource and claims.Sink interfaces.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var (
	_ claims.DataSource = (*Client)(nil)
	_ claims.Sink       = (*Client)(nil)
)

func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetClaim(ctx context.Context, id string) (*claims.Claim, error) {
	var claim claims.Claim
	if err := c.getJSON(ctx, "/claims/"+url.PathEscape(id), &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

func (c *Client) GetProvider(ctx context.Context, id string) (*claims.Provider, error) {
	var provider claims.Provider
	if err := c.getJSON(ctx, "/providers/"+url.PathEscape(id), &provider); err != nil {
		return nil, err
	}
	return &provider, nil
}

func (c *Client) GetRisk(ctx context.Context, id string) (*claims.RiskRating, error) {
	var risk claims.RiskRating
	if err := c.getJSON(ctx, "/risk-ratings/"+url.PathEscape(id), &risk); err != nil {
		return nil, err
	}
	return &risk, nil
}

func (c *Client) GetPatient(ctx context.Context, id string) (*claims.Patient, error) {
	var patient claims.Patient
	if err := c.getJSON(ctx, "/patients/"+url.PathEscape(id), &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (c *Client) GetPolicy(ctx context.Context, id string) (*claims.InsurancePolicy, error) {
	var policy claims.InsurancePolicy
	if err := c.getJSON(ctx, "/policies/"+url.PathEscape(id), &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (c *Client) GetClaimRiders(ctx context.Context, claimID string) ([]*claims.RiderAssociation, error) {
	var riders []*claims.RiderAssociation
	if err := c.getJSON(ctx, "/claims/"+url.PathEscape(claimID)+"/riders", &riders); err != nil {
		return nil, err
	}
	return riders, nil
}

func (c *Client) GetPatientClaims(ctx context.Context, patientID string) ([]*claims.Claim, error) {
	var list []*claims.Claim
	if err := c.getJSON(ctx, "/patients/"+url.PathEscape(patientID)+"/claims", &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetPendingClaims(ctx context.Context) ([]*claims.Claim, error) {
	var list []*claims.Claim
	if err := c.getJSON(ctx, "/claims/pending", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// listResponse is the upstream service's paginated list envelope.
type listResponse struct {
	Data  []*claims.Claim `json:"data"`
	Total int             `json:"total"`
}

func (c *Client) ListClaims(ctx context.Context, status claims.Status, limit, offset int) ([]*claims.Claim, int, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var resp listResponse
	if err := c.getJSON(ctx, "/claims?"+q.Encode(), &resp); err != nil {
		return nil, 0, err
	}
	return resp.Data, resp.Total, nil
}

// UpdateClaim writes the decision back to the upstream claim record.
func (c *Client) UpdateClaim(ctx context.Context, claimID string, d claims.Decision) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/claims/"+url.PathEscape(claimID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update claim %s: %w", claimID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("update claim %s: %w", claimID, claims.ErrNotFound)
	default:
		return fmt.Errorf("update claim %s: unexpected status %d", claimID, resp.StatusCode)
	}
}

// Ping verifies upstream connectivity via the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend ping: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: %w", path, claims.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
