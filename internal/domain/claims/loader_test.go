package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLoader(src *mockSource) *Loader {
	return NewLoader(src, zerolog.Nop())
}

func fullSource() *mockSource {
	src := newMockSource()
	c := src.addClaim("CLM-1", "PRV-1", "RSK-1", "amount:500")
	src.addProvider("PRV-1", "General Hospital", "springfield", "Low")
	src.addRisk("RSK-1", "low")

	patientID := "PAT-1"
	policyID := "POL-1"
	c.PatientID = &patientID
	c.PolicyID = &policyID

	src.patients[patientID] = &Patient{PatientID: patientID, Relationship: RelationshipSelf, PolicyID: policyID}
	src.policies[policyID] = &InsurancePolicy{PolicyID: policyID, CoverageAmount: 10000, Status: PolicyActive}
	src.riders["CLM-1"] = []*RiderAssociation{{
		ClaimID: "CLM-1", RiderID: "RID-1", Selected: true,
		Rider: &ClaimRider{RiderID: "RID-1", Name: "Dental", LimitAmount: 1500},
	}}
	src.patientClaims[patientID] = []*Claim{{ClaimID: "CLM-0", ProviderID: "PRV-1", CreatedAt: time.Now().UTC()}}
	return src
}

func TestLoad_FullBundle(t *testing.T) {
	src := fullSource()
	b, err := newTestLoader(src).Load(context.Background(), "CLM-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Claim == nil || b.Provider == nil || b.Risk == nil {
		t.Fatal("required entities missing from bundle")
	}
	if b.Patient == nil || b.Policy == nil {
		t.Error("expected patient and policy in bundle")
	}
	if len(b.Riders) != 1 || len(b.PriorClaims) != 1 {
		t.Errorf("expected 1 rider and 1 prior claim, got %d and %d", len(b.Riders), len(b.PriorClaims))
	}
}

func TestLoad_MissingClaimIsFatal(t *testing.T) {
	src := newMockSource()
	if _, err := newTestLoader(src).Load(context.Background(), "CLM-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_MissingProviderIsFatal(t *testing.T) {
	src := newMockSource()
	src.addClaim("CLM-1", "PRV-gone", "RSK-1", "")
	src.addRisk("RSK-1", "low")
	if _, err := newTestLoader(src).Load(context.Background(), "CLM-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_MissingRiskIsFatal(t *testing.T) {
	src := newMockSource()
	src.addClaim("CLM-1", "PRV-1", "RSK-gone", "")
	src.addProvider("PRV-1", "General Hospital", "springfield", "Low")
	if _, err := newTestLoader(src).Load(context.Background(), "CLM-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_OptionalFailuresDegrade(t *testing.T) {
	src := fullSource()
	src.patientErr = errors.New("patient service down")
	src.policyErr = errors.New("policy service down")
	src.riderErr = errors.New("rider service down")
	src.priorErr = errors.New("history service down")

	b, err := newTestLoader(src).Load(context.Background(), "CLM-1")
	if err != nil {
		t.Fatalf("optional failures must not fail the load: %v", err)
	}
	if b.Patient != nil || b.Policy != nil || b.Riders != nil || b.PriorClaims != nil {
		t.Error("expected degraded bundle with optional entities absent")
	}
}

func TestLoad_PolicyFallsBackToPatient(t *testing.T) {
	src := fullSource()
	src.claims["CLM-1"].PolicyID = nil

	b, err := newTestLoader(src).Load(context.Background(), "CLM-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Policy == nil || b.Policy.PolicyID != "POL-1" {
		t.Error("expected policy resolved via the patient's policy id")
	}
}

func TestLoad_NoPatientSkipsOptionalFetches(t *testing.T) {
	src := newMockSource()
	src.addClaim("CLM-1", "PRV-1", "RSK-1", "amount:100")
	src.addProvider("PRV-1", "General Hospital", "springfield", "Low")
	src.addRisk("RSK-1", "low")

	b, err := newTestLoader(src).Load(context.Background(), "CLM-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Patient != nil || b.Policy != nil || b.PriorClaims != nil {
		t.Error("expected no patient, policy or prior claims without a patient id")
	}
}
