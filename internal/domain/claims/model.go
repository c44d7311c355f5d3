package claims

import (
	"strconv"
	"strings"
	"time"
)

// Status is the disposition of a claim. Pending is both the initial state and
// a valid post-assessment outcome meaning the claim needs human review.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusDenied   Status = "Denied"
)

// ValidStatus reports whether s is one of the three claim dispositions.
func ValidStatus(s Status) bool {
	return s == StatusPending || s == StatusApproved || s == StatusDenied
}

// RiskLevel is the coarse categorical rating carried by risk ratings and
// providers. It is the only authoritative signal for provider risk.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// ParseRiskLevel normalizes a risk level string case-insensitively. Unknown
// values return the empty RiskLevel, which downstream rules treat as an
// absent signal.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLevelLow
	case "medium":
		return RiskLevelMedium
	case "high":
		return RiskLevelHigh
	}
	return ""
}

// Relationship of a patient to the policy holder.
type Relationship string

const (
	RelationshipSelf      Relationship = "Self"
	RelationshipSpouse    Relationship = "Spouse"
	RelationshipChild     Relationship = "Child"
	RelationshipDependent Relationship = "Dependent"
)

// PolicyStatus of an insurance policy.
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "Active"
	PolicyExpired   PolicyStatus = "Expired"
	PolicySuspended PolicyStatus = "Suspended"
)

// Claim is an insurance claim under assessment. The disposition fields
// (Status, ReasonCode, ReasonDescription, ConfidenceScore) are written only
// from decision engine output.
type Claim struct {
	ClaimID    string  `json:"claim_id" db:"claim_id"`
	ProviderID string  `json:"provider_id" db:"provider_id"`
	RiskID     string  `json:"risk_id" db:"risk_id"`
	PatientID  *string `json:"patient_id,omitempty" db:"patient_id"`
	PolicyID   *string `json:"policy_id,omitempty" db:"policy_id"`

	// Summary is free text and may embed a legacy "amount:<number>" token.
	Summary string `json:"summary,omitempty" db:"summary"`
	// Amount is the structured claim amount. When set it takes precedence
	// over any amount token in the summary.
	Amount *float64 `json:"amount,omitempty" db:"amount"`

	ExGratia   bool `json:"ex_gratia" db:"ex_gratia"`
	AppealCase bool `json:"appeal_case" db:"appeal_case"`

	SubmissionDate *time.Time `json:"submission_date,omitempty" db:"submission_date"`

	Status            Status   `json:"status" db:"status"`
	ReasonCode        string   `json:"reason_code,omitempty" db:"reason_code"`
	ReasonDescription string   `json:"reason_description,omitempty" db:"reason_description"`
	ConfidenceScore   *float64 `json:"confidence_score,omitempty" db:"confidence_score"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EffectiveAmount returns the claim amount and whether one is known. The
// structured Amount field wins; otherwise the legacy "amount:<number>" token
// is parsed out of the summary. Parse failures are treated as no signal.
func (c *Claim) EffectiveAmount() (float64, bool) {
	if c.Amount != nil {
		return *c.Amount, true
	}
	return parseAmountToken(c.Summary)
}

// SubmittedAt returns the submission date, falling back to CreatedAt when
// the claim carries no explicit submission timestamp.
func (c *Claim) SubmittedAt() time.Time {
	if c.SubmissionDate != nil {
		return *c.SubmissionDate
	}
	return c.CreatedAt
}

// parseAmountToken extracts the first number following an "amount:" token.
func parseAmountToken(summary string) (float64, bool) {
	_, rest, found := strings.Cut(summary, "amount:")
	if !found {
		return 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Provider of the claimed treatment. RiskLevel is authoritative; Name and
// Location must never influence scoring beyond the explicit location
// denylist.
type Provider struct {
	ProviderID string `json:"provider_id" db:"provider_id"`
	Name       string `json:"name" db:"name"`
	Location   string `json:"location" db:"location"`
	RiskLevel  string `json:"risk_level" db:"risk_level"`
}

// RiskRating attached to a claim.
type RiskRating struct {
	RiskID      string   `json:"risk_id" db:"risk_id"`
	RiskLevel   string   `json:"risk_level" db:"risk_level"`
	Score       *float64 `json:"score,omitempty" db:"score"`
	Description string   `json:"description,omitempty" db:"description"`
}

// Patient covered by a policy.
type Patient struct {
	PatientID    string       `json:"patient_id" db:"patient_id"`
	DateOfBirth  *time.Time   `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender       string       `json:"gender,omitempty" db:"gender"`
	Relationship Relationship `json:"relationship" db:"relationship"`
	PolicyID     string       `json:"policy_id" db:"policy_id"`
}

// AgeAt returns the patient's age in whole years at the given time, or
// (0, false) when the date of birth is unknown.
func (p *Patient) AgeAt(at time.Time) (int, bool) {
	if p.DateOfBirth == nil {
		return 0, false
	}
	dob := *p.DateOfBirth
	years := at.Year() - dob.Year()
	if at.YearDay() < dob.YearDay() {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years, true
}

// InsurancePolicy backing a claim.
type InsurancePolicy struct {
	PolicyID         string       `json:"policy_id" db:"policy_id"`
	PolicyType       string       `json:"policy_type" db:"policy_type"`
	CoverageAmount   float64      `json:"coverage_amount" db:"coverage_amount"`
	DeductibleAmount float64      `json:"deductible_amount" db:"deductible_amount"`
	CopayPercentage  float64      `json:"copay_percentage" db:"copay_percentage"`
	Status           PolicyStatus `json:"status" db:"status"`
	StartDate        *time.Time   `json:"start_date,omitempty" db:"start_date"`
	EndDate          *time.Time   `json:"end_date,omitempty" db:"end_date"`
}

// ClaimRider is optional supplemental coverage. LimitAmount extends the
// policy coverage when the rider is active on a claim.
type ClaimRider struct {
	RiderID     string  `json:"rider_id" db:"rider_id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description,omitempty" db:"description"`
	LimitAmount float64 `json:"limit_amount" db:"limit_amount"`
}

// RiderAssociation links a claim to a rider. The rider is active on the
// claim only when Selected is true. Rider may be nil when the rider record
// could not be resolved.
type RiderAssociation struct {
	ClaimID  string      `json:"claim_id" db:"claim_id"`
	RiderID  string      `json:"rider_id" db:"rider_id"`
	Selected bool        `json:"selected_status" db:"selected_status"`
	Rider    *ClaimRider `json:"rider,omitempty"`
}

// Bundle is the read-only snapshot of a claim and its related entities used
// for one assessment. Claim, Provider and Risk are always present; the rest
// are best-effort and absent when unavailable. A bundle is built fresh per
// assessment and never cached.
type Bundle struct {
	Claim       *Claim
	Provider    *Provider
	Risk        *RiskRating
	Patient     *Patient
	Policy      *InsurancePolicy
	Riders      []*RiderAssociation
	PriorClaims []*Claim
}

// ActiveRiderLimit sums the limit amounts of riders active on the claim.
func (b *Bundle) ActiveRiderLimit() float64 {
	var total float64
	for _, assoc := range b.Riders {
		if assoc.Selected && assoc.Rider != nil {
			total += assoc.Rider.LimitAmount
		}
	}
	return total
}

// Decision is the output of one assessment pass.
type Decision struct {
	Status            Status   `json:"status"`
	ReasonCode        string   `json:"reason_code"`
	ReasonDescription string   `json:"reason_description"`
	ConfidenceScore   float64  `json:"confidence_score"`
	Analysis          string   `json:"analysis,omitempty"`
	RiskFactors       []string `json:"risk_factors,omitempty"`
}

// BatchFailure records one claim that could not be processed in a batch.
type BatchFailure struct {
	ClaimID string `json:"claim_id"`
	Error   string `json:"error"`
}

// BatchResult is the structured outcome of a pending-claims batch pass.
type BatchResult struct {
	Succeeded []*Claim       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}
