package claims

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced record does not exist in the
// claim store.
var ErrNotFound = errors.New("not found")

// DataSource supplies claim records and their related entities. Both the
// remote backend client and the Postgres store implement it. Implementations
// must be safe for concurrent use.
type DataSource interface {
	GetClaim(ctx context.Context, claimID string) (*Claim, error)
	GetProvider(ctx context.Context, providerID string) (*Provider, error)
	GetRisk(ctx context.Context, riskID string) (*RiskRating, error)
	GetPatient(ctx context.Context, patientID string) (*Patient, error)
	GetPolicy(ctx context.Context, policyID string) (*InsurancePolicy, error)
	GetClaimRiders(ctx context.Context, claimID string) ([]*RiderAssociation, error)
	// GetPatientClaims returns other claims submitted for the patient,
	// used for duplicate detection. Best-effort.
	GetPatientClaims(ctx context.Context, patientID string) ([]*Claim, error)
	GetPendingClaims(ctx context.Context) ([]*Claim, error)
	ListClaims(ctx context.Context, status Status, limit, offset int) ([]*Claim, int, error)
}

// Sink persists an assessment decision back onto a claim.
type Sink interface {
	UpdateClaim(ctx context.Context, claimID string, d Decision) error
}
