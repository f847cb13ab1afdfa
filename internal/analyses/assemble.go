package analyses

import (
	"encoding/json"

	"estate-gap-backend/internal/analyses/recovery"
	"estate-gap-backend/internal/analyses/scoring"
)

// Qualitative list keys carried over from a recovered record.
const (
	KeyMissingDocuments   = "missingDocuments"
	KeyOutdatedDocuments  = "outdatedDocuments"
	KeyInconsistencies    = "inconsistencies"
	KeyRecommendations    = "recommendations"
	KeyStateSpecificNotes = "stateSpecificNotes"
)

const (
	RecoveryRecovered = "recovered"
	RecoveryFailed    = "failed"
)

// AnalysisRecord is the persisted result of one analysis run. Lists are
// never nil, and Score always comes from the deterministic report.
type AnalysisRecord struct {
	Score              int             `json:"score"`
	ScoreBreakdown     scoring.Report  `json:"scoreBreakdown"`
	MissingDocuments   []any           `json:"missingDocuments"`
	OutdatedDocuments  []any           `json:"outdatedDocuments"`
	Inconsistencies    []any           `json:"inconsistencies"`
	Recommendations    []any           `json:"recommendations"`
	StateSpecificNotes []any           `json:"stateSpecificNotes"`
	Recovery           RecoverySummary `json:"recovery"`
}

// RecoverySummary tells partial qualitative data apart from none at all.
type RecoverySummary struct {
	Status         string `json:"status"`
	Strategy       string `json:"strategy,omitempty"`
	DiscardedBytes int    `json:"discardedBytes,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// SerializedLists holds the qualitative lists as JSON text.
type SerializedLists struct {
	MissingDocuments   string
	OutdatedDocuments  string
	Inconsistencies    string
	Recommendations    string
	StateSpecificNotes string
}

// Assemble merges a recovery outcome with the deterministic score. Any score
// the generator reported is ignored.
func Assemble(outcome recovery.Outcome, report scoring.Report) AnalysisRecord {
	rec := AnalysisRecord{
		Score:              report.FinalScore,
		ScoreBreakdown:     report,
		MissingDocuments:   []any{},
		OutdatedDocuments:  []any{},
		Inconsistencies:    []any{},
		Recommendations:    []any{},
		StateSpecificNotes: []any{},
	}
	if !outcome.Recovered() {
		rec.Recovery = RecoverySummary{Status: RecoveryFailed}
		if outcome.Err != nil {
			rec.Recovery.Reason = outcome.Err.Error()
		}
		return rec
	}

	rec.MissingDocuments = listField(outcome.Record, KeyMissingDocuments)
	rec.OutdatedDocuments = listField(outcome.Record, KeyOutdatedDocuments)
	rec.Inconsistencies = listField(outcome.Record, KeyInconsistencies)
	rec.Recommendations = listField(outcome.Record, KeyRecommendations)
	rec.StateSpecificNotes = listField(outcome.Record, KeyStateSpecificNotes)
	rec.Recovery = RecoverySummary{
		Status:         RecoveryRecovered,
		Strategy:       string(outcome.Provenance.Strategy),
		DiscardedBytes: outcome.Provenance.DiscardedBytes,
	}
	return rec
}

// OutdatedCount is the number of outdated documents the generator reported,
// or 0 when nothing was recovered.
func OutdatedCount(outcome recovery.Outcome) int {
	if !outcome.Recovered() {
		return 0
	}
	return len(listField(outcome.Record, KeyOutdatedDocuments))
}

// Serialized renders each list as a JSON array.
func (r AnalysisRecord) Serialized() (SerializedLists, error) {
	var out SerializedLists
	targets := []struct {
		dst  *string
		list []any
	}{
		{&out.MissingDocuments, r.MissingDocuments},
		{&out.OutdatedDocuments, r.OutdatedDocuments},
		{&out.Inconsistencies, r.Inconsistencies},
		{&out.Recommendations, r.Recommendations},
		{&out.StateSpecificNotes, r.StateSpecificNotes},
	}
	for _, t := range targets {
		list := t.list
		if list == nil {
			list = []any{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return SerializedLists{}, err
		}
		*t.dst = string(data)
	}
	return out, nil
}

// listField returns rec[key] when it is an array. Anything else is empty.
func listField(rec recovery.Record, key string) []any {
	list, ok := rec[key].([]any)
	if !ok || list == nil {
		return []any{}
	}
	return list
}
