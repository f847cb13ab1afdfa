package scoring

import (
	"fmt"

	"estate-gap-backend/internal/intake"
)

// Score computes the deterministic completeness score. Every applicable rule
// fires; the ledger keeps evaluation order.
func Score(facts intake.ClientFacts, issues IssueCounts) Report {
	rules := []func() []Deduction{
		func() []Deduction { return documentRules(facts) },
		func() []Deduction { return trustRules(facts) },
		func() []Deduction { return minorRules(facts) },
		func() []Deduction { return beneficiaryRules(facts) },
		func() []Deduction { return maritalRules(facts) },
		func() []Deduction { return jurisdictionRules(facts) },
		func() []Deduction { return qualityRules(issues) },
	}

	deductions := make([]Deduction, 0, 8)
	for _, rule := range rules {
		for _, d := range rule() {
			if d.Points > 0 {
				deductions = append(deductions, d)
			}
		}
	}

	report := Report{
		StartingScore: StartingScore,
		Deductions:    deductions,
	}
	report.FinalScore = clampScore(StartingScore - report.TotalPoints())
	report.Summary = summarize(report)
	return report
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func summarize(r Report) string {
	switch len(r.Deductions) {
	case 0:
		return fmt.Sprintf("Score %d/100. No planning gaps found.", r.FinalScore)
	case 1:
		return fmt.Sprintf("Score %d/100. 1 gap found: %s (-%d).", r.FinalScore, r.Deductions[0].Reason, r.Deductions[0].Points)
	}
	largest := r.Deductions[0]
	for _, d := range r.Deductions[1:] {
		if d.Points > largest.Points {
			largest = d
		}
	}
	return fmt.Sprintf("Score %d/100. %d gaps found totaling %d points; largest: %s (-%d).",
		r.FinalScore, len(r.Deductions), r.TotalPoints(), largest.Reason, largest.Points)
}
