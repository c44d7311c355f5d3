package claims

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Loader assembles the entity bundle for one assessment. Claim, provider and
// risk rating are required; patient, policy, riders and prior claims are
// fetched best-effort so that a partial store never blocks an assessment.
type Loader struct {
	source DataSource
	logger zerolog.Logger
}

func NewLoader(source DataSource, logger zerolog.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Load fetches the claim and its related entities. A failure on the claim,
// provider or risk fetch is fatal for this claim (not the batch). Failures
// on the optional entities are logged as warnings and leave the field
// absent; downstream rules treat absence as an unknown signal.
func (l *Loader) Load(ctx context.Context, claimID string) (*Bundle, error) {
	claim, err := l.source.GetClaim(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("fetch claim %s: %w", claimID, err)
	}

	provider, err := l.source.GetProvider(ctx, claim.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("fetch provider %s for claim %s: %w", claim.ProviderID, claimID, err)
	}

	risk, err := l.source.GetRisk(ctx, claim.RiskID)
	if err != nil {
		return nil, fmt.Errorf("fetch risk %s for claim %s: %w", claim.RiskID, claimID, err)
	}

	b := &Bundle{Claim: claim, Provider: provider, Risk: risk}

	if claim.PatientID != nil {
		patient, err := l.source.GetPatient(ctx, *claim.PatientID)
		if err != nil {
			l.warn(claimID, "patient", err)
		} else {
			b.Patient = patient
		}
	}

	policyID := claim.PolicyID
	if policyID == nil && b.Patient != nil && b.Patient.PolicyID != "" {
		policyID = &b.Patient.PolicyID
	}
	if policyID != nil {
		policy, err := l.source.GetPolicy(ctx, *policyID)
		if err != nil {
			l.warn(claimID, "policy", err)
		} else {
			b.Policy = policy
		}
	}

	riders, err := l.source.GetClaimRiders(ctx, claimID)
	if err != nil {
		l.warn(claimID, "riders", err)
	} else {
		b.Riders = riders
	}

	if claim.PatientID != nil {
		prior, err := l.source.GetPatientClaims(ctx, *claim.PatientID)
		if err != nil {
			l.warn(claimID, "prior claims", err)
		} else {
			b.PriorClaims = prior
		}
	}

	return b, nil
}

func (l *Loader) warn(claimID, entity string, err error) {
	l.logger.Warn().
		Str("claim_id", claimID).
		Str("entity", entity).
		Err(err).
		Msg("bundle entity unavailable, continuing with degraded signal")
}
