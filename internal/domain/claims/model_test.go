package claims

import (
	"testing"
	"time"
)

func TestEffectiveAmount(t *testing.T) {
	structured := 1234.5
	tests := []struct {
		name    string
		claim   Claim
		want    float64
		wantSet bool
	}{
		{"structured amount wins", Claim{Amount: &structured, Summary: "amount:99"}, 1234.5, true},
		{"summary token", Claim{Summary: "knee surgery amount:4500 follow-up"}, 4500, true},
		{"token at end", Claim{Summary: "amount:250.75"}, 250.75, true},
		{"no token", Claim{Summary: "routine checkup"}, 0, false},
		{"empty summary", Claim{}, 0, false},
		{"token with no value", Claim{Summary: "amount:"}, 0, false},
		{"unparsable value", Claim{Summary: "amount:lots"}, 0, false},
		{"word amount without colon", Claim{Summary: "large amount claimed"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.claim.EffectiveAmount()
			if ok != tt.wantSet || got != tt.want {
				t.Errorf("EffectiveAmount() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantSet)
			}
		})
	}
}

func TestSubmittedAt_FallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	submitted := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)

	c := Claim{CreatedAt: created}
	if got := c.SubmittedAt(); !got.Equal(created) {
		t.Errorf("expected CreatedAt fallback, got %v", got)
	}
	c.SubmissionDate = &submitted
	if got := c.SubmittedAt(); !got.Equal(submitted) {
		t.Errorf("expected explicit submission date, got %v", got)
	}
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in   string
		want RiskLevel
	}{
		{"low", RiskLevelLow},
		{"LOW", RiskLevelLow},
		{" Medium ", RiskLevelMedium},
		{"high", RiskLevelHigh},
		{"", ""},
		{"critical", ""},
	}
	for _, tt := range tests {
		if got := ParseRiskLevel(tt.in); got != tt.want {
			t.Errorf("ParseRiskLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusDenied} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	for _, s := range []Status{"", "approved", "Rejected"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true", s)
		}
	}
}

func TestPatientAgeAt(t *testing.T) {
	dob := time.Date(2001, 6, 15, 0, 0, 0, 0, time.UTC)
	p := Patient{DateOfBirth: &dob}

	if age, ok := p.AgeAt(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)); !ok || age != 24 {
		t.Errorf("day before birthday: got (%d, %v), want (24, true)", age, ok)
	}
	if age, ok := p.AgeAt(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)); !ok || age != 25 {
		t.Errorf("on birthday: got (%d, %v), want (25, true)", age, ok)
	}

	unknown := Patient{}
	if _, ok := unknown.AgeAt(time.Now()); ok {
		t.Error("expected no age without a date of birth")
	}
}

func TestActiveRiderLimit(t *testing.T) {
	b := Bundle{Riders: []*RiderAssociation{
		{Selected: true, Rider: &ClaimRider{LimitAmount: 10000}},
		{Selected: false, Rider: &ClaimRider{LimitAmount: 99999}},
		{Selected: true, Rider: nil},
		{Selected: true, Rider: &ClaimRider{LimitAmount: 2500}},
	}}
	if got := b.ActiveRiderLimit(); got != 12500 {
		t.Errorf("ActiveRiderLimit() = %v, want 12500", got)
	}
}
