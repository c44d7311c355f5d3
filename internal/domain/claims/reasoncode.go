package claims

// Reason codes form a closed vocabulary. Each code maps 1:1 to a fixed
// human-readable description; decisions always carry the canonical
// description for a recognized code, even when an advisory service supplied
// its own wording.
const (
	ReasonAutoApproved       = "AUTO_APPR"
	ReasonHighRiskProvider   = "HIGH_RISK_PROVIDER"
	ReasonAmountExceeded     = "AMOUNT_EXCEEDED"
	ReasonFraudSuspected     = "FRAUD_SUSPECTED"
	ReasonManualReview       = "MANUAL_REVIEW"
	ReasonDocRequired        = "DOC_REQUIRED"
	ReasonPolicyViolation    = "POLICY_VIOLATION"
	ReasonPatientEligibility = "PATIENT_ELIGIBILITY"
	ReasonCoverageExpired    = "COVERAGE_EXPIRED"
	ReasonPreAuthRequired    = "PRE_AUTH_REQUIRED"
	ReasonDuplicateClaim     = "DUPLICATE_CLAIM"
	ReasonAgeRestriction     = "AGE_RESTRICTION"
	ReasonRiderViolation     = "RIDER_VIOLATION"
	ReasonAIError            = "AI_ERROR"
	ReasonMissingClaimID     = "MISSING_CLAIM_ID"
)

var reasonDescriptions = map[string]string{
	ReasonAutoApproved:       "Automatically approved - low risk routine treatment",
	ReasonHighRiskProvider:   "Provider flagged for unusual claim patterns",
	ReasonAmountExceeded:     "Claim amount exceeds typical range for procedure",
	ReasonFraudSuspected:     "Multiple claims detected, potential fraud",
	ReasonManualReview:       "Requires manual review due to medium risk factors",
	ReasonDocRequired:        "Additional documentation required",
	ReasonPolicyViolation:    "Claim violates one or more policy terms",
	ReasonPatientEligibility: "Patient is not eligible under the linked policy",
	ReasonCoverageExpired:    "Policy coverage expired before the claim was submitted",
	ReasonPreAuthRequired:    "Treatment requires pre-authorization",
	ReasonDuplicateClaim:     "Duplicate of a previously submitted claim",
	ReasonAgeRestriction:     "Patient age is outside the covered range",
	ReasonRiderViolation:     "Claim does not meet rider requirements",
	ReasonAIError:            "Advisory assessment unavailable, claim requires manual review",
	ReasonMissingClaimID:     "Claim ID is required for processing",
}

// defaultReasonDescription is used when an advisory service returns a reason
// code outside the closed vocabulary.
const defaultReasonDescription = "Unrecognized reason code, claim requires manual review"

// ReasonDescription returns the canonical description for a reason code and
// whether the code is part of the closed vocabulary.
func ReasonDescription(code string) (string, bool) {
	desc, ok := reasonDescriptions[code]
	return desc, ok
}

// Canonicalize overwrites the description of a decision with the canonical
// one when its reason code is recognized, keeping outward messaging
// consistent regardless of which scorer produced the decision. Unknown codes
// keep their code but receive the default description.
func Canonicalize(d Decision) Decision {
	if desc, ok := ReasonDescription(d.ReasonCode); ok {
		d.ReasonDescription = desc
	} else {
		d.ReasonDescription = defaultReasonDescription
	}
	return d
}

// FallbackDecision is the conservative outcome used whenever an external
// assessment fails: the claim stays Pending for human review and confidence
// is zeroed. Processing must fail toward caution, never toward silent
// approval.
func FallbackDecision() Decision {
	desc, _ := ReasonDescription(ReasonAIError)
	return Decision{
		Status:            StatusPending,
		ReasonCode:        ReasonAIError,
		ReasonDescription: desc,
		ConfidenceScore:   0.0,
	}
}
