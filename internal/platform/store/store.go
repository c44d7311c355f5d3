// Package store implements the Postgres-backed claim store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jayawardhanm/jay-claimsub-ai/internal/domain/claims"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Store is the pgx implementation of the claim data source and sink.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ claims.DataSource = (*Store)(nil)
	_ claims.Sink       = (*Store)(nil)
)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) conn() queryable { return s.pool }

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const claimCols = `claim_id, provider_id, risk_id, patient_id, policy_id,
	summary, amount, ex_gratia, appeal_case, submission_date,
	status, reason_code, reason_description, confidence_score,
	created_at, updated_at`

func scanClaim(row pgx.Row) (*claims.Claim, error) {
	var c claims.Claim
	err := row.Scan(&c.ClaimID, &c.ProviderID, &c.RiskID, &c.PatientID, &c.PolicyID,
		&c.Summary, &c.Amount, &c.ExGratia, &c.AppealCase, &c.SubmissionDate,
		&c.Status, &c.ReasonCode, &c.ReasonDescription, &c.ConfidenceScore,
		&c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, claims.ErrNotFound)
	}
	return err
}

func (s *Store) GetClaim(ctx context.Context, claimID string) (*claims.Claim, error) {
	c, err := scanClaim(s.conn().QueryRow(ctx,
		`SELECT `+claimCols+` FROM claims WHERE claim_id = $1`, claimID))
	if err != nil {
		return nil, notFound(err, "claim", claimID)
	}
	return c, nil
}

func (s *Store) GetProvider(ctx context.Context, providerID string) (*claims.Provider, error) {
	var p claims.Provider
	err := s.conn().QueryRow(ctx,
		`SELECT provider_id, name, location, risk_level FROM providers WHERE provider_id = $1`,
		providerID).Scan(&p.ProviderID, &p.Name, &p.Location, &p.RiskLevel)
	if err != nil {
		return nil, notFound(err, "provider", providerID)
	}
	return &p, nil
}

func (s *Store) GetRisk(ctx context.Context, riskID string) (*claims.RiskRating, error) {
	var r claims.RiskRating
	err := s.conn().QueryRow(ctx,
		`SELECT risk_id, risk_level, score, description FROM risk_ratings WHERE risk_id = $1`,
		riskID).Scan(&r.RiskID, &r.RiskLevel, &r.Score, &r.Description)
	if err != nil {
		return nil, notFound(err, "risk rating", riskID)
	}
	return &r, nil
}

func (s *Store) GetPatient(ctx context.Context, patientID string) (*claims.Patient, error) {
	var p claims.Patient
	err := s.conn().QueryRow(ctx,
		`SELECT patient_id, date_of_birth, gender, relationship, policy_id
		 FROM patients WHERE patient_id = $1`,
		patientID).Scan(&p.PatientID, &p.DateOfBirth, &p.Gender, &p.Relationship, &p.PolicyID)
	if err != nil {
		return nil, notFound(err, "patient", patientID)
	}
	return &p, nil
}

func (s *Store) GetPolicy(ctx context.Context, policyID string) (*claims.InsurancePolicy, error) {
	var p claims.InsurancePolicy
	err := s.conn().QueryRow(ctx,
		`SELECT policy_id, policy_type, coverage_amount, deductible_amount, copay_percentage,
			status, start_date, end_date
		 FROM insurance_policies WHERE policy_id = $1`,
		policyID).Scan(&p.PolicyID, &p.PolicyType, &p.CoverageAmount, &p.DeductibleAmount,
		&p.CopayPercentage, &p.Status, &p.StartDate, &p.EndDate)
	if err != nil {
		return nil, notFound(err, "policy", policyID)
	}
	return &p, nil
}

// GetClaimRiders returns rider associations for a claim. The rider record is
// left-joined so an association pointing at a missing rider still comes back,
// with a nil Rider.
func (s *Store) GetClaimRiders(ctx context.Context, claimID string) ([]*claims.RiderAssociation, error) {
	rows, err := s.conn().Query(ctx, `
		SELECT ra.claim_id, ra.rider_id, ra.selected_status,
			r.rider_id, r.name, r.description, r.limit_amount
		FROM rider_associations ra
		LEFT JOIN claim_riders r ON r.rider_id = ra.rider_id
		WHERE ra.claim_id = $1`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assocs []*claims.RiderAssociation
	for rows.Next() {
		var a claims.RiderAssociation
		var riderID, name, description *string
		var limitAmount *float64
		if err := rows.Scan(&a.ClaimID, &a.RiderID, &a.Selected,
			&riderID, &name, &description, &limitAmount); err != nil {
			return nil, err
		}
		if riderID != nil {
			a.Rider = &claims.ClaimRider{RiderID: *riderID, LimitAmount: *limitAmount}
			if name != nil {
				a.Rider.Name = *name
			}
			if description != nil {
				a.Rider.Description = *description
			}
		}
		assocs = append(assocs, &a)
	}
	return assocs, rows.Err()
}

func (s *Store) GetPatientClaims(ctx context.Context, patientID string) ([]*claims.Claim, error) {
	return s.queryClaims(ctx,
		`SELECT `+claimCols+` FROM claims WHERE patient_id = $1 ORDER BY created_at DESC`,
		patientID)
}

func (s *Store) GetPendingClaims(ctx context.Context) ([]*claims.Claim, error) {
	return s.queryClaims(ctx,
		`SELECT `+claimCols+` FROM claims WHERE status = $1 ORDER BY created_at ASC`,
		claims.StatusPending)
}

func (s *Store) ListClaims(ctx context.Context, status claims.Status, limit, offset int) ([]*claims.Claim, int, error) {
	var total int
	var list []*claims.Claim
	var err error

	if status != "" {
		if err = s.conn().QueryRow(ctx,
			`SELECT COUNT(*) FROM claims WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		list, err = s.queryClaims(ctx,
			`SELECT `+claimCols+` FROM claims WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err = s.conn().QueryRow(ctx, `SELECT COUNT(*) FROM claims`).Scan(&total); err != nil {
			return nil, 0, err
		}
		list, err = s.queryClaims(ctx,
			`SELECT `+claimCols+` FROM claims ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// UpdateClaim writes a decision onto the claim record.
func (s *Store) UpdateClaim(ctx context.Context, claimID string, d claims.Decision) error {
	tag, err := s.conn().Exec(ctx, `
		UPDATE claims
		SET status = $2, reason_code = $3, reason_description = $4,
			confidence_score = $5, updated_at = NOW()
		WHERE claim_id = $1`,
		claimID, d.Status, d.ReasonCode, d.ReasonDescription, d.ConfidenceScore)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("claim %s: %w", claimID, claims.ErrNotFound)
	}
	return nil
}

func (s *Store) queryClaims(ctx context.Context, sql string, args ...interface{}) ([]*claims.Claim, error) {
	rows, err := s.conn().Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*claims.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
