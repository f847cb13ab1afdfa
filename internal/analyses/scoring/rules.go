package scoring

import (
	"strings"

	"estate-gap-backend/internal/intake"
)

// Dollar thresholds, compared against the estate estimate in cents.
const (
	estate50k  = 50_000 * 100
	estate100k = 100_000 * 100
	estate500k = 500_000 * 100
	estate1m   = 1_000_000 * 100

	pointsPerOutdated = 2
	maxOutdatedPoints = 5
)

var highProbateJurisdictions = map[string]bool{
	"california": true,
	"ca":         true,
	"new york":   true,
	"ny":         true,
	"florida":    true,
	"fl":         true,
}

func documentRules(f intake.ClientFacts) []Deduction {
	var out []Deduction
	if !f.HasWill {
		out = append(out, Deduction{Rule: "no_will", Reason: "No will", Points: 15, Category: CategoryDocuments})
	}
	if !f.HasFinancialPOA {
		out = append(out, Deduction{Rule: "no_financial_poa", Reason: "No financial power of attorney", Points: 10, Category: CategoryDocuments})
	}
	if !f.HasHealthcarePOA {
		out = append(out, Deduction{Rule: "no_healthcare_poa", Reason: "No healthcare power of attorney", Points: 8, Category: CategoryDocuments})
	}
	if !f.HasHealthcareDirective {
		out = append(out, Deduction{Rule: "no_healthcare_directive", Reason: "No healthcare directive", Points: 7, Category: CategoryDocuments})
	}
	return out
}

func trustRules(f intake.ClientFacts) []Deduction {
	if f.HasTrust {
		return nil
	}
	value := f.EstimatedEstateValueCents
	switch {
	case value >= estate1m:
		return []Deduction{{Rule: "no_trust_high_value", Reason: "No trust with an estate of $1M or more", Points: 15, Category: CategoryPlanning}}
	case value >= estate500k:
		return []Deduction{{Rule: "no_trust_mid_value", Reason: "No trust with an estate of $500K or more", Points: 10, Category: CategoryPlanning}}
	case value >= estate100k:
		return []Deduction{{Rule: "no_trust_low_value", Reason: "No trust with an estate of $100K or more", Points: 5, Category: CategoryPlanning}}
	}
	return nil
}

func minorRules(f intake.ClientFacts) []Deduction {
	if !f.HasMinorChildren {
		return nil
	}
	var out []Deduction
	if !f.HasGuardian {
		out = append(out, Deduction{Rule: "minor_no_guardian", Reason: "Minor children without a named guardian", Points: 10, Category: CategoryPlanning})
	}
	if !f.HasWill {
		out = append(out, Deduction{Rule: "minor_no_will", Reason: "Minor children without a will", Points: 5, Category: CategoryPlanning})
	}
	return out
}

func beneficiaryRules(f intake.ClientFacts) []Deduction {
	if f.BeneficiaryDesignationCount == 0 && f.EstimatedEstateValueCents > estate50k {
		return []Deduction{{Rule: "no_beneficiary_designations", Reason: "No beneficiary designations tracked", Points: 10, Category: CategoryBeneficiaries}}
	}
	return nil
}

func maritalRules(f intake.ClientFacts) []Deduction {
	if !f.IsMarried {
		return nil
	}
	var out []Deduction
	if !f.HasWill && !f.HasTrust {
		out = append(out, Deduction{Rule: "married_no_will_or_trust", Reason: "Married without a will or trust", Points: 5, Category: CategoryPlanning})
	}
	if !f.HasTrust && f.EstimatedEstateValueCents > estate500k {
		out = append(out, Deduction{Rule: "married_no_trust_high_value", Reason: "Married with an estate over $500K and no trust", Points: 5, Category: CategoryPlanning})
	}
	return out
}

func jurisdictionRules(f intake.ClientFacts) []Deduction {
	if f.HasTrust || f.EstimatedEstateValueCents <= estate100k {
		return nil
	}
	if !highProbateJurisdictions[strings.ToLower(strings.TrimSpace(f.Jurisdiction))] {
		return nil
	}
	return []Deduction{{Rule: "high_probate_no_trust", Reason: "High probate cost state without a trust", Points: 5, Category: CategoryPlanning}}
}

func qualityRules(issues IssueCounts) []Deduction {
	if issues.Outdated <= 0 {
		return nil
	}
	points := min(min(issues.Outdated, maxOutdatedPoints)*pointsPerOutdated, maxOutdatedPoints)
	return []Deduction{{Rule: "outdated_documents", Reason: "Outdated documents found", Points: points, Category: CategoryDocuments}}
}
