package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jayawardhanm/jay-claimsub-ai/internal/domain/claims"
)

func testBundle() *claims.Bundle {
	return &claims.Bundle{
		Claim:    &claims.Claim{ClaimID: "CLM-1", ProviderID: "PRV-1", RiskID: "RSK-1", Summary: "routine checkup"},
		Provider: &claims.Provider{ProviderID: "PRV-1", Location: "Springfield", RiskLevel: "low"},
		Risk:     &claims.RiskRating{RiskID: "RSK-1", RiskLevel: "low"},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, claims.DefaultThresholds(), zerolog.Nop(), WithHTTPClient(srv.Client()))
}

func assertFallback(t *testing.T, a claims.Assessment, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("advisory failures must not return errors, got %v", err)
	}
	if a.Decision == nil {
		t.Fatal("fallback assessment must carry a decision")
	}
	if a.Decision.Status != claims.StatusPending || a.Decision.ReasonCode != claims.ReasonAIError {
		t.Errorf("got %s/%s, want Pending/%s", a.Decision.Status, a.Decision.ReasonCode, claims.ReasonAIError)
	}
	if a.Decision.ConfidenceScore != 0 {
		t.Errorf("fallback confidence = %v, want 0", a.Decision.ConfidenceScore)
	}
}

func TestAssess_Success(t *testing.T) {
	var req assessRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/assess" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"decision":           "Approved",
			"reason_code":        "AUTO_APPR",
			"reason_description": "looks fine",
			"confidence_score":   0.92,
			"analysis":           "routine low-risk claim",
			"risk_factors":       []string{"none"},
		})
	}))

	a, err := client.Assess(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if a.Decision == nil {
		t.Fatal("expected a complete decision")
	}
	if a.Decision.Status != claims.StatusApproved || a.Decision.ReasonCode != "AUTO_APPR" {
		t.Errorf("got %s/%s", a.Decision.Status, a.Decision.ReasonCode)
	}
	if a.Decision.ConfidenceScore != 0.92 {
		t.Errorf("confidence = %v, want 0.92", a.Decision.ConfidenceScore)
	}
	if a.Decision.Analysis == "" || len(a.Decision.RiskFactors) != 1 {
		t.Errorf("analysis fields not carried through: %+v", a.Decision)
	}

	// The request must include the claim and the business thresholds.
	if req.Claim == nil || req.Claim.ClaimID != "CLM-1" {
		t.Errorf("request claim = %+v", req.Claim)
	}
	if req.Thresholds.AutoApproveAmount != 5000 {
		t.Errorf("request thresholds = %+v", req.Thresholds)
	}
	if len(req.Thresholds.FraudLocations) != 2 {
		t.Errorf("fraud locations = %v", req.Thresholds.FraudLocations)
	}
}

func TestAssess_ServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	a, err := mustAssess(t, client)
	assertFallback(t, a, err)
}

func TestAssess_MalformedJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	a, err := mustAssess(t, client)
	assertFallback(t, a, err)
}

func TestAssess_MissingRequiredFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// confidence_score absent
		w.Write([]byte(`{"decision":"Approved","reason_code":"AUTO_APPR","reason_description":"ok"}`))
	}))
	a, err := mustAssess(t, client)
	assertFallback(t, a, err)
}

func TestAssess_UnknownDecision(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"decision":"Escalated","reason_code":"X","reason_description":"?","confidence_score":0.5}`))
	}))
	a, err := mustAssess(t, client)
	assertFallback(t, a, err)
}

func TestAssess_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, claims.DefaultThresholds(), zerolog.Nop())
	a, err := mustAssess(t, client)
	assertFallback(t, a, err)
}

func TestPing(t *testing.T) {
	healthy := true
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping healthy: %v", err)
	}
	healthy = false
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Ping should fail when the service is unhealthy")
	}
}

func mustAssess(t *testing.T, c *Client) (claims.Assessment, error) {
	t.Helper()
	return c.Assess(context.Background(), testBundle())
}
