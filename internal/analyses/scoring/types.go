package scoring

// Category groups deductions for display.
type Category string

const (
	CategoryDocuments     Category = "documents"
	CategoryPlanning      Category = "planning"
	CategoryBeneficiaries Category = "beneficiaries"
)

const StartingScore = 100

// Deduction is one fired rule in the score ledger.
type Deduction struct {
	Rule     string   `json:"rule"`
	Reason   string   `json:"reason"`
	Points   int      `json:"points"`
	Category Category `json:"category"`
}

// Report is the authoritative score and its audit trail.
type Report struct {
	StartingScore int         `json:"startingScore"`
	Deductions    []Deduction `json:"deductions"`
	FinalScore    int         `json:"finalScore"`
	Summary       string      `json:"summary"`
}

// TotalPoints sums the ledger.
func (r Report) TotalPoints() int {
	total := 0
	for _, d := range r.Deductions {
		total += d.Points
	}
	return total
}

// IssueCounts is everything scoring is allowed to know about the generated
// analysis.
type IssueCounts struct {
	Outdated int `json:"outdated"`
}
