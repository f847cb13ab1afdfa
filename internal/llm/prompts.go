package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"estate-gap-backend/internal/intake"
)

const gapSystemPrompt = `You review estate plans. Compare the client's facts against a baseline plan
(will, trust where warranted, financial and healthcare powers of attorney, healthcare directive,
guardianship for minors, beneficiary designations). Respond with a single JSON object and nothing
else, using exactly these keys:
  "missingDocuments":   [{"document": string, "priority": "high"|"medium"|"low", "reason": string}]
  "outdatedDocuments":  [{"document": string, "issue": string}]
  "inconsistencies":    [{"description": string, "recommendation": string}]
  "recommendations":    [{"action": string, "priority": "high"|"medium"|"low"}]
  "stateSpecificNotes": [string]
  "score":              integer 0-100`

// BuildGapPrompt renders the generator prompt for a client.
func BuildGapPrompt(facts intake.ClientFacts, goals json.RawMessage, designations []intake.BeneficiaryDesignation) string {
	factsJSON, _ := json.MarshalIndent(facts, "", "  ")

	var b strings.Builder
	b.WriteString(gapSystemPrompt)
	b.WriteString("\n\nJurisdiction: ")
	b.WriteString(facts.Jurisdiction)
	b.WriteString("\n\nClient facts:\n")
	b.Write(factsJSON)
	if g := strings.TrimSpace(string(goals)); g != "" && g != "null" {
		b.WriteString("\n\nClient goals:\n")
		b.WriteString(g)
	}
	if len(designations) > 0 {
		designationsJSON, _ := json.MarshalIndent(designations, "", "  ")
		fmt.Fprintf(&b, "\n\nBeneficiary designations (%d):\n", len(designations))
		b.Write(designationsJSON)
	}
	return b.String()
}

// HashPrompt returns the hex SHA-256 of a prompt for audit columns.
func HashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
