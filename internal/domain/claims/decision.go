package claims

import (
	"math"
	"time"
)

// dependentAgeLimit is the age at which a child loses dependent coverage.
const dependentAgeLimit = 26

// duplicateWindow is how far back a matching prior claim counts as a
// duplicate.
const duplicateWindow = 30 * 24 * time.Hour

// Engine maps a risk score and an entity bundle to a decision. Evaluation is
// deterministic: structural checks on the richer bundle run first in a fixed
// order, then the score thresholds apply, first match winning. The engine
// never errors on malformed or missing fields; absent signals simply skip
// their rule.
type Engine struct {
	t Thresholds
}

func NewEngine(t Thresholds) *Engine {
	return &Engine{t: t}
}

// Decide produces the disposition for one assessment pass. Appeal cases are
// never auto-denied: a Denied outcome is downgraded to manual review.
func (e *Engine) Decide(score float64, b *Bundle) Decision {
	d := e.decide(score, b)
	if d.Status == StatusDenied && b.Claim != nil && b.Claim.AppealCase {
		return reason(StatusPending, ReasonManualReview, d.ConfidenceScore)
	}
	return d
}

func (e *Engine) decide(score float64, b *Bundle) Decision {
	if d, ok := e.structural(b); ok {
		return d
	}
	return e.byScore(score, b)
}

// structural evaluates the higher-priority checks available when the bundle
// carries policy, patient or rider data. Ex gratia claims skip the coverage
// math (expiry and amount limits) but not the fraud checks.
func (e *Engine) structural(b *Bundle) (Decision, bool) {
	claim := b.Claim
	if claim == nil {
		return Decision{}, false
	}
	amount, hasAmount := claim.EffectiveAmount()

	if b.Provider != nil && ParseRiskLevel(b.Provider.RiskLevel) == RiskLevelHigh {
		return reason(StatusDenied, ReasonHighRiskProvider, 1.0), true
	}

	if b.Policy != nil && !claim.ExGratia {
		expired := b.Policy.Status == PolicyExpired ||
			(b.Policy.EndDate != nil && b.Policy.EndDate.Before(claim.SubmittedAt()))
		if expired {
			return reason(StatusDenied, ReasonCoverageExpired, 1.0), true
		}
	}

	if b.Patient != nil {
		if b.Policy != nil && b.Policy.Status == PolicySuspended {
			return reason(StatusDenied, ReasonPatientEligibility, 1.0), true
		}
		if claim.PolicyID != nil && b.Patient.PolicyID != "" && b.Patient.PolicyID != *claim.PolicyID {
			return reason(StatusDenied, ReasonPatientEligibility, 1.0), true
		}
		if b.Patient.Relationship == RelationshipChild {
			if age, ok := b.Patient.AgeAt(claim.SubmittedAt()); ok && age >= dependentAgeLimit {
				return reason(StatusDenied, ReasonAgeRestriction, 1.0), true
			}
		}
	}

	if b.Policy != nil && !claim.ExGratia && hasAmount {
		limit := b.Policy.CoverageAmount + b.ActiveRiderLimit()
		if amount > limit {
			return reason(StatusDenied, ReasonAmountExceeded, 1.0), true
		}
	}

	if e.fraudIndicated(b, amount, hasAmount) {
		return reason(StatusDenied, ReasonFraudSuspected, 1.0), true
	}

	for _, assoc := range b.Riders {
		if assoc.Selected && assoc.Rider == nil {
			return reason(StatusDenied, ReasonRiderViolation, 1.0), true
		}
	}

	return Decision{}, false
}

// fraudIndicated reports the two fraud signals: a duplicate among the
// patient's prior claims (same provider, same amount, within the duplicate
// window) and benefits claimed under a rider whose association is inactive.
func (e *Engine) fraudIndicated(b *Bundle, amount float64, hasAmount bool) bool {
	claim := b.Claim
	for _, prior := range b.PriorClaims {
		if prior.ClaimID == claim.ClaimID || prior.ProviderID != claim.ProviderID {
			continue
		}
		priorAmount, ok := prior.EffectiveAmount()
		if !ok || !hasAmount || priorAmount != amount {
			continue
		}
		gap := claim.SubmittedAt().Sub(prior.SubmittedAt())
		if gap < 0 {
			gap = -gap
		}
		if gap <= duplicateWindow {
			return true
		}
	}

	for _, assoc := range b.Riders {
		if !assoc.Selected {
			return true
		}
	}
	return false
}

func (e *Engine) byScore(score float64, b *Bundle) Decision {
	amount, hasAmount := 0.0, false
	if b.Claim != nil {
		amount, hasAmount = b.Claim.EffectiveAmount()
	}

	if score < e.t.AutoApprove && hasAmount && amount <= e.t.AutoApproveAmount {
		return reason(StatusApproved, ReasonAutoApproved, approveConfidence(score))
	}
	if score >= e.t.AutoDeny {
		code := ReasonFraudSuspected
		if b.Risk != nil && ParseRiskLevel(b.Risk.RiskLevel) == RiskLevelHigh {
			code = ReasonHighRiskProvider
		}
		return reason(StatusDenied, code, score)
	}
	if score >= e.t.RiskMedium {
		return reason(StatusPending, ReasonManualReview, 0.5)
	}
	if score < e.t.RiskLow {
		return reason(StatusApproved, ReasonAutoApproved, approveConfidence(score))
	}
	return reason(StatusPending, ReasonDocRequired, 0.5)
}

// approveConfidence maps a low risk score onto approval confidence: the
// lower the risk the stronger the approval.
func approveConfidence(score float64) float64 {
	return math.Round((1.0-score)*100) / 100
}

func reason(status Status, code string, confidence float64) Decision {
	desc, _ := ReasonDescription(code)
	return Decision{
		Status:            status,
		ReasonCode:        code,
		ReasonDescription: desc,
		ConfidenceScore:   confidence,
	}
}
