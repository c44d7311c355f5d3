package claims

import (
	"context"
	"strings"
)

// Thresholds is the immutable business configuration passed into scorer and
// decision engine constructors. Score boundaries live in [0,1];
// AutoApproveAmount is a currency ceiling.
type Thresholds struct {
	RiskLow    float64
	RiskMedium float64
	RiskHigh   float64

	AutoApprove float64
	AutoDeny    float64

	AutoApproveAmount float64

	// FraudLocations is the denylist of known-fraudulent provider
	// locations, the only way location may influence a score.
	FraudLocations []string
}

// DefaultThresholds mirrors the stock business configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RiskLow:           0.3,
		RiskMedium:        0.7,
		RiskHigh:          1.0,
		AutoApprove:       0.3,
		AutoDeny:          0.8,
		AutoApproveAmount: 5000,
		FraudLocations:    []string{"fraud_city", "unknown"},
	}
}

func (t Thresholds) fraudLocation(location string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	for _, bad := range t.FraudLocations {
		if loc == strings.ToLower(bad) {
			return true
		}
	}
	return false
}

// Assessment is the output of a scoring strategy. Score is always set.
// Decision is set only by strategies that produce a complete decision
// themselves (the advisory scorer); when nil the decision engine derives the
// decision from the score.
type Assessment struct {
	Score    float64
	Decision *Decision
}

// Scorer is the capability every scoring strategy implements. Assess must
// never fail in a way that aborts claim processing: strategies that depend
// on external services degrade to a fallback decision instead of returning
// an error.
type Scorer interface {
	Assess(ctx context.Context, b *Bundle) (Assessment, error)
}

// RuleScorer is the deterministic, dependency-free scoring strategy. The
// score is derived from the risk rating level, the claim amount relative to
// the auto-approve ceiling, and the provider location denylist. Provider
// risk is judged only through the risk level field, never through name or
// location text.
type RuleScorer struct {
	t Thresholds
}

func NewRuleScorer(t Thresholds) *RuleScorer {
	return &RuleScorer{t: t}
}

func (s *RuleScorer) Assess(_ context.Context, b *Bundle) (Assessment, error) {
	score := 0.2
	if b.Risk != nil {
		switch ParseRiskLevel(b.Risk.RiskLevel) {
		case RiskLevelHigh:
			score = 0.8
		case RiskLevelMedium:
			score = 0.5
		}
	}

	if amount, ok := b.Claim.EffectiveAmount(); ok && amount > s.t.AutoApproveAmount {
		score += 0.3
	}

	if b.Provider != nil && s.t.fraudLocation(b.Provider.Location) {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return Assessment{Score: score}, nil
}
