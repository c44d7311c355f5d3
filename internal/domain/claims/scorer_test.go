package claims

import (
	"context"
	"testing"
)

func scoreBundle(t *testing.T, b *Bundle) float64 {
	t.Helper()
	a, err := NewRuleScorer(testThresholds()).Assess(context.Background(), b)
	if err != nil {
		t.Fatalf("rule scorer must not error: %v", err)
	}
	return a.Score
}

func ruleBundle(riskLevel, summary, location string) *Bundle {
	return &Bundle{
		Claim:    &Claim{ClaimID: "CLM-1", Summary: summary},
		Provider: &Provider{ProviderID: "PRV-1", Location: location},
		Risk:     &RiskRating{RiskID: "RSK-1", RiskLevel: riskLevel},
	}
}

func TestRuleScorer_BaseScores(t *testing.T) {
	tests := []struct {
		level string
		want  float64
	}{
		{"low", 0.2},
		{"Low", 0.2},
		{"medium", 0.5},
		{"MEDIUM", 0.5},
		{"high", 0.8},
		{"High", 0.8},
		{"", 0.2},
		{"unheard-of", 0.2},
	}
	for _, tt := range tests {
		got := scoreBundle(t, ruleBundle(tt.level, "", "springfield"))
		if got != tt.want {
			t.Errorf("risk level %q: expected %.2f, got %.2f", tt.level, tt.want, got)
		}
	}
}

func TestRuleScorer_MonotonicInRiskLevel(t *testing.T) {
	levels := []string{"Low", "Medium", "High"}
	prev := -1.0
	for _, level := range levels {
		score := scoreBundle(t, ruleBundle(level, "amount:9999", "springfield"))
		if score < prev {
			t.Errorf("score decreased from %.2f to %.2f at level %s", prev, score, level)
		}
		prev = score
	}
}

func TestRuleScorer_AmountAboveCeilingAddsWeight(t *testing.T) {
	base := scoreBundle(t, ruleBundle("low", "amount:5000", "springfield"))
	bumped := scoreBundle(t, ruleBundle("low", "amount:5001", "springfield"))
	if bumped-base != 0.3 {
		t.Errorf("expected +0.3 above the ceiling, got %.2f -> %.2f", base, bumped)
	}
}

func TestRuleScorer_StructuredAmountPreferredOverToken(t *testing.T) {
	b := ruleBundle("low", "amount:100", "springfield")
	amt := 9000.0
	b.Claim.Amount = &amt
	if got := scoreBundle(t, b); got != 0.5 {
		t.Errorf("structured amount should win over summary token, got %.2f", got)
	}
}

func TestRuleScorer_MalformedAmountIgnored(t *testing.T) {
	for _, summary := range []string{"amount:", "amount: ", "amount:abc", "no token here"} {
		if got := scoreBundle(t, ruleBundle("low", summary, "springfield")); got != 0.2 {
			t.Errorf("summary %q: parse failure must be silent, got %.2f", summary, got)
		}
	}
}

func TestRuleScorer_DenylistedLocation(t *testing.T) {
	if got := scoreBundle(t, ruleBundle("low", "", "fraud_city")); got != 0.4 {
		t.Errorf("expected 0.4 for denylisted location, got %.2f", got)
	}
	if got := scoreBundle(t, ruleBundle("low", "", "unknown")); got != 0.4 {
		t.Errorf("expected 0.4 for unknown location, got %.2f", got)
	}
}

func TestRuleScorer_ClampedToOne(t *testing.T) {
	if got := scoreBundle(t, ruleBundle("high", "amount:99999", "fraud_city")); got != 1.0 {
		t.Errorf("expected clamp at 1.0, got %.2f", got)
	}
}

// Provider free text must never move the score: risk is judged only through
// the risk level field, location only through the explicit denylist.
func TestRuleScorer_ProviderTextDoesNotInfluenceScore(t *testing.T) {
	plain := ruleBundle("low", "amount:200", "springfield")
	plain.Provider.Name = "General Hospital"

	shady := ruleBundle("low", "amount:200", "Fraud City")
	shady.Provider.Name = "Dr. Suspicious Sketchy"

	if a, b := scoreBundle(t, plain), scoreBundle(t, shady); a != b {
		t.Errorf("provider text changed the score: %.2f vs %.2f", a, b)
	}
}
