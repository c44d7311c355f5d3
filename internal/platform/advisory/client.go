// Package advisory implements the remote AI-assisted scoring strategy. The
// advisory service receives the full claim bundle plus the business
// thresholds and returns a complete decision. Any failure along the way
// degrades to the conservative fallback decision so claim processing never
// aborts on advisory problems.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayawardhanm/jay-claimsub-ai/internal/domain/claims"
)

const defaultTimeout = 30 * time.Second

// ClientOption configures the advisory client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.httpClient.Timeout = d
	}
}

// Client calls the remote advisory service. It implements claims.Scorer.
type Client struct {
	baseURL    string
	thresholds claims.Thresholds
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ claims.Scorer = (*Client)(nil)

func NewClient(baseURL string, t claims.Thresholds, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		thresholds: t,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With().Str("component", "advisory").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type thresholdPayload struct {
	RiskLow           float64  `json:"risk_threshold_low"`
	RiskMedium        float64  `json:"risk_threshold_medium"`
	RiskHigh          float64  `json:"risk_threshold_high"`
	AutoApprove       float64  `json:"auto_approve_threshold"`
	AutoDeny          float64  `json:"auto_deny_threshold"`
	AutoApproveAmount float64  `json:"auto_approve_amount"`
	FraudLocations    []string `json:"fraud_locations"`
}

type assessRequest struct {
	Claim      *claims.Claim              `json:"claim"`
	Provider   *claims.Provider           `json:"provider"`
	Risk       *claims.RiskRating         `json:"risk"`
	Patient    *claims.Patient            `json:"patient,omitempty"`
	Policy     *claims.InsurancePolicy    `json:"policy,omitempty"`
	Riders     []*claims.RiderAssociation `json:"riders,omitempty"`
	Thresholds thresholdPayload           `json:"business_thresholds"`
}

// assessResponse uses pointers for the required fields so missing keys are
// distinguishable from zero values.
type assessResponse struct {
	Decision          *string  `json:"decision"`
	ReasonCode        *string  `json:"reason_code"`
	ReasonDescription *string  `json:"reason_description"`
	ConfidenceScore   *float64 `json:"confidence_score"`
	Analysis          string   `json:"analysis"`
	RiskFactors       []string `json:"risk_factors"`
	PolicyAnalysis    string   `json:"policy_analysis"`
}

// Assess submits the bundle for remote assessment. Transport errors, non-2xx
// responses, malformed or incomplete payloads all produce the fallback
// decision with a nil error; the processor must keep going.
func (c *Client) Assess(ctx context.Context, b *claims.Bundle) (claims.Assessment, error) {
	req := assessRequest{
		Claim:    b.Claim,
		Provider: b.Provider,
		Risk:     b.Risk,
		Patient:  b.Patient,
		Policy:   b.Policy,
		Riders:   b.Riders,
		Thresholds: thresholdPayload{
			RiskLow:           c.thresholds.RiskLow,
			RiskMedium:        c.thresholds.RiskMedium,
			RiskHigh:          c.thresholds.RiskHigh,
			AutoApprove:       c.thresholds.AutoApprove,
			AutoDeny:          c.thresholds.AutoDeny,
			AutoApproveAmount: c.thresholds.AutoApproveAmount,
			FraudLocations:    c.thresholds.FraudLocations,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return c.fallback(b, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assess", bytes.NewReader(body))
	if err != nil {
		return c.fallback(b, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.fallback(b, fmt.Errorf("advisory request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return c.fallback(b, fmt.Errorf("advisory returned status %d", resp.StatusCode))
	}

	var out assessResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return c.fallback(b, fmt.Errorf("decode response: %w", err))
	}
	if out.Decision == nil || out.ReasonCode == nil || out.ReasonDescription == nil || out.ConfidenceScore == nil {
		return c.fallback(b, fmt.Errorf("response missing required fields"))
	}

	status := claims.Status(*out.Decision)
	if !claims.ValidStatus(status) {
		return c.fallback(b, fmt.Errorf("unrecognized decision %q", *out.Decision))
	}

	d := claims.Decision{
		Status:            status,
		ReasonCode:        *out.ReasonCode,
		ReasonDescription: *out.ReasonDescription,
		ConfidenceScore:   *out.ConfidenceScore,
		Analysis:          out.Analysis,
		RiskFactors:       out.RiskFactors,
	}
	return claims.Assessment{Score: *out.ConfidenceScore, Decision: &d}, nil
}

func (c *Client) fallback(b *claims.Bundle, cause error) (claims.Assessment, error) {
	c.logger.Warn().
		Str("claim_id", b.Claim.ClaimID).
		Err(cause).
		Msg("advisory assessment failed, using fallback decision")
	d := claims.FallbackDecision()
	return claims.Assessment{Score: 0, Decision: &d}, nil
}

// Ping verifies advisory service connectivity.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("advisory ping: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("advisory ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}
