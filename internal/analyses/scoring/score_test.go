package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"estate-gap-backend/internal/intake"
)

// documented is a client with every baseline document in place.
func documented() intake.ClientFacts {
	return intake.ClientFacts{
		Jurisdiction:           "TX",
		HasWill:                true,
		HasFinancialPOA:        true,
		HasHealthcarePOA:       true,
		HasHealthcareDirective: true,
	}
}

func rules(r Report) []string {
	out := make([]string, 0, len(r.Deductions))
	for _, d := range r.Deductions {
		out = append(out, d.Rule)
	}
	return out
}

func TestScoreNoDocuments(t *testing.T) {
	report := Score(intake.ClientFacts{Jurisdiction: intake.UnknownJurisdiction}, IssueCounts{})

	want := []Deduction{
		{Rule: "no_will", Reason: "No will", Points: 15, Category: CategoryDocuments},
		{Rule: "no_financial_poa", Reason: "No financial power of attorney", Points: 10, Category: CategoryDocuments},
		{Rule: "no_healthcare_poa", Reason: "No healthcare power of attorney", Points: 8, Category: CategoryDocuments},
		{Rule: "no_healthcare_directive", Reason: "No healthcare directive", Points: 7, Category: CategoryDocuments},
	}
	if diff := cmp.Diff(want, report.Deductions); diff != "" {
		t.Fatalf("deductions mismatch (-want +got):\n%s", diff)
	}
	if report.FinalScore != 60 || report.StartingScore != 100 {
		t.Fatalf("expected 100 -> 60, got %d -> %d", report.StartingScore, report.FinalScore)
	}
}

func TestScoreMarriedHighValueNoTrust(t *testing.T) {
	facts := documented()
	facts.IsMarried = true
	facts.EstimatedEstateValueCents = 1_200_000 * 100
	facts.BeneficiaryDesignationCount = 2

	report := Score(facts, IssueCounts{})
	if diff := cmp.Diff([]string{"no_trust_high_value", "married_no_trust_high_value"}, rules(report)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if report.FinalScore != 80 {
		t.Fatalf("expected 80, got %d", report.FinalScore)
	}
}

func TestScoreMinorChildren(t *testing.T) {
	facts := documented()
	facts.HasMinorChildren = true

	report := Score(facts, IssueCounts{})
	if diff := cmp.Diff([]string{"minor_no_guardian"}, rules(report)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if report.FinalScore != 90 {
		t.Fatalf("expected 90, got %d", report.FinalScore)
	}

	facts.HasWill = false
	report = Score(facts, IssueCounts{})
	if diff := cmp.Diff([]string{"no_will", "minor_no_guardian", "minor_no_will"}, rules(report)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if report.FinalScore != 70 {
		t.Fatalf("expected 70, got %d", report.FinalScore)
	}

	facts.HasGuardian = true
	report = Score(facts, IssueCounts{})
	if diff := cmp.Diff([]string{"no_will", "minor_no_will"}, rules(report)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreTrustTiers(t *testing.T) {
	tests := []struct {
		dollars int64
		rule    string
		points  int
	}{
		{dollars: 99_999},
		{dollars: 100_000, rule: "no_trust_low_value", points: 5},
		{dollars: 499_999, rule: "no_trust_low_value", points: 5},
		{dollars: 500_000, rule: "no_trust_mid_value", points: 10},
		{dollars: 1_000_000, rule: "no_trust_high_value", points: 15},
	}
	for _, tt := range tests {
		facts := documented()
		facts.EstimatedEstateValueCents = tt.dollars * 100
		facts.BeneficiaryDesignationCount = 1

		report := Score(facts, IssueCounts{})
		if tt.rule == "" {
			if len(report.Deductions) != 0 {
				t.Fatalf("$%d: expected no deductions, got %v", tt.dollars, rules(report))
			}
			continue
		}
		if len(report.Deductions) != 1 || report.Deductions[0].Rule != tt.rule || report.Deductions[0].Points != tt.points {
			t.Fatalf("$%d: expected %s (-%d), got %+v", tt.dollars, tt.rule, tt.points, report.Deductions)
		}
	}

	facts := documented()
	facts.HasTrust = true
	facts.EstimatedEstateValueCents = 5_000_000 * 100
	facts.BeneficiaryDesignationCount = 1
	if report := Score(facts, IssueCounts{}); report.FinalScore != 100 {
		t.Fatalf("trust holder should not lose points, got %v", rules(report))
	}
}

func TestScoreBeneficiaryThreshold(t *testing.T) {
	facts := documented()
	facts.EstimatedEstateValueCents = 50_000 * 100
	if report := Score(facts, IssueCounts{}); len(report.Deductions) != 0 {
		t.Fatalf("$50,000 is not over the threshold, got %v", rules(report))
	}

	facts.EstimatedEstateValueCents++
	report := Score(facts, IssueCounts{})
	if diff := cmp.Diff([]string{"no_beneficiary_designations"}, rules(report)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if report.Deductions[0].Category != CategoryBeneficiaries {
		t.Fatalf("expected beneficiaries category, got %s", report.Deductions[0].Category)
	}
}

func TestScoreMarriedWithoutWillOrTrust(t *testing.T) {
	facts := documented()
	facts.HasWill = false
	facts.IsMarried = true

	report := Score(facts, IssueCounts{})
	if diff := cmp.Diff([]string{"no_will", "married_no_will_or_trust"}, rules(report)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreHighProbateJurisdiction(t *testing.T) {
	for _, j := range []string{"CA", "california", " New York ", "fl", "Florida"} {
		facts := documented()
		facts.Jurisdiction = j
		facts.EstimatedEstateValueCents = 200_000 * 100
		facts.BeneficiaryDesignationCount = 1

		report := Score(facts, IssueCounts{})
		if diff := cmp.Diff([]string{"no_trust_low_value", "high_probate_no_trust"}, rules(report)); diff != "" {
			t.Fatalf("%q: rules mismatch (-want +got):\n%s", j, diff)
		}
	}

	facts := documented()
	facts.Jurisdiction = "NY"
	facts.EstimatedEstateValueCents = 100_000 * 100
	facts.BeneficiaryDesignationCount = 1
	report := Score(facts, IssueCounts{})
	if diff := cmp.Diff([]string{"no_trust_low_value"}, rules(report)); diff != "" {
		t.Fatalf("exactly $100,000 should not trigger probate rule (-want +got):\n%s", diff)
	}
}

func TestScoreOutdatedPenaltyCap(t *testing.T) {
	tests := []struct {
		outdated int
		points   int
	}{
		{0, 0},
		{1, 2},
		{2, 4},
		{3, 5},
		{1000, 5},
		{-2, 0},
	}
	for _, tt := range tests {
		report := Score(documented(), IssueCounts{Outdated: tt.outdated})
		if report.TotalPoints() != tt.points || report.FinalScore != 100-tt.points {
			t.Fatalf("outdated=%d: expected %d points, got %+v", tt.outdated, tt.points, report)
		}
	}
}

func TestScoreWorstCaseOrder(t *testing.T) {
	facts := intake.ClientFacts{
		Jurisdiction:              "California",
		HasMinorChildren:          true,
		IsMarried:                 true,
		EstimatedEstateValueCents: 3_500_000 * 100,
	}
	report := Score(facts, IssueCounts{Outdated: 4})

	wantOrder := []string{
		"no_will", "no_financial_poa", "no_healthcare_poa", "no_healthcare_directive",
		"no_trust_high_value",
		"minor_no_guardian", "minor_no_will",
		"no_beneficiary_designations",
		"married_no_will_or_trust", "married_no_trust_high_value",
		"high_probate_no_trust",
		"outdated_documents",
	}
	if diff := cmp.Diff(wantOrder, rules(report)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if report.TotalPoints() != 100 {
		t.Fatalf("expected 100 points, got %d", report.TotalPoints())
	}
	if report.FinalScore != 0 {
		t.Fatalf("expected 0, got %d", report.FinalScore)
	}
}

func TestScoreArithmeticLaw(t *testing.T) {
	bools := []bool{false, true}
	values := []int64{0, 50_001, 100_001, 500_001, 1_000_000}
	for _, will := range bools {
		for _, trust := range bools {
			for _, minors := range bools {
				for _, married := range bools {
					for _, v := range values {
						facts := intake.ClientFacts{
							Jurisdiction:              "NY",
							HasWill:                   will,
							HasTrust:                  trust,
							HasMinorChildren:          minors,
							IsMarried:                 married,
							EstimatedEstateValueCents: v * 100,
						}
						report := Score(facts, IssueCounts{Outdated: 1})
						want := clampScore(100 - report.TotalPoints())
						if report.FinalScore != want {
							t.Fatalf("law broken for %+v: %d != %d", facts, report.FinalScore, want)
						}
						for _, d := range report.Deductions {
							if d.Points <= 0 {
								t.Fatalf("non-positive deduction in ledger: %+v", d)
							}
						}
					}
				}
			}
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	facts := intake.ClientFacts{Jurisdiction: "FL", IsMarried: true, EstimatedEstateValueCents: 900_000 * 100}
	first := Score(facts, IssueCounts{Outdated: 2})
	second := Score(facts, IssueCounts{Outdated: 2})
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("score not deterministic (-first +second):\n%s", diff)
	}
}

func TestClampScore(t *testing.T) {
	for in, want := range map[int]int{-20: 0, 0: 0, 55: 55, 100: 100, 130: 100} {
		if got := clampScore(in); got != want {
			t.Fatalf("clampScore(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSummary(t *testing.T) {
	full := documented()
	full.BeneficiaryDesignationCount = 1
	if got := Score(full, IssueCounts{}).Summary; got != "Score 100/100. No planning gaps found." {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := Score(documented(), IssueCounts{Outdated: 1}).Summary; got != "Score 98/100. 1 gap found: Outdated documents found (-2)." {
		t.Fatalf("unexpected summary %q", got)
	}
	got := Score(intake.ClientFacts{}, IssueCounts{}).Summary
	if got != "Score 60/100. 4 gaps found totaling 40 points; largest: No will (-15)." {
		t.Fatalf("unexpected summary %q", got)
	}
}
