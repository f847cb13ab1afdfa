package analyses

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"estate-gap-backend/internal/analyses/recovery"
	"estate-gap-backend/internal/analyses/scoring"
	"estate-gap-backend/internal/intake"
)

func TestAssembleRecoveredOverridesGeneratorScore(t *testing.T) {
	outcome := recovery.Recover(recovery.RawOutput{
		File: `{"score":97,"missingDocuments":[{"document":"Will","priority":"high"}],"stateSpecificNotes":["CA community property"],"recommendations":"see notes"}`,
	})
	if !outcome.Recovered() {
		t.Fatalf("expected recovery, got %v", outcome.Err)
	}
	report := scoring.Score(intake.ClientFacts{}, scoring.IssueCounts{Outdated: OutdatedCount(outcome)})

	rec := Assemble(outcome, report)
	if rec.Score != 60 || rec.ScoreBreakdown.FinalScore != 60 {
		t.Fatalf("expected deterministic score 60, got %d", rec.Score)
	}
	if len(rec.MissingDocuments) != 1 || len(rec.StateSpecificNotes) != 1 {
		t.Fatalf("lists not copied: %+v", rec)
	}
	if rec.Recommendations == nil || len(rec.Recommendations) != 0 {
		t.Fatalf("non-array list should be empty, got %#v", rec.Recommendations)
	}
	if rec.OutdatedDocuments == nil || rec.Inconsistencies == nil {
		t.Fatalf("absent lists must be empty, not nil")
	}
	if diff := cmp.Diff(RecoverySummary{Status: RecoveryRecovered, Strategy: "file-direct"}, rec.Recovery); diff != "" {
		t.Fatalf("recovery summary mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleFailedStillScores(t *testing.T) {
	outcome := recovery.Recover(recovery.RawOutput{})
	if outcome.Recovered() {
		t.Fatalf("empty channels should not recover")
	}
	report := scoring.Score(intake.ClientFacts{HasWill: true}, scoring.IssueCounts{Outdated: OutdatedCount(outcome)})

	rec := Assemble(outcome, report)
	if rec.Score != report.FinalScore || rec.Score != 75 {
		t.Fatalf("expected score 75, got %d", rec.Score)
	}
	if rec.Recovery.Status != RecoveryFailed || rec.Recovery.Reason != recovery.ErrNoStructuredOutput.Error() {
		t.Fatalf("unexpected recovery summary %+v", rec.Recovery)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{KeyMissingDocuments, KeyOutdatedDocuments, KeyInconsistencies, KeyRecommendations, KeyStateSpecificNotes} {
		list, ok := decoded[key].([]any)
		if !ok || len(list) != 0 {
			t.Fatalf("%s should serialize as [], got %#v", key, decoded[key])
		}
	}
}

func TestOutdatedCountFeedsScore(t *testing.T) {
	outcome := recovery.Recover(recovery.RawOutput{
		Console: "Here you go:\n```json\n{\"score\":10,\"outdatedDocuments\":[{\"document\":\"Will\"},{\"document\":\"POA\"}]}\n```\n",
	})
	if got := OutdatedCount(outcome); got != 2 {
		t.Fatalf("expected 2 outdated, got %d", got)
	}
	if got := OutdatedCount(recovery.Outcome{Err: recovery.ErrNoStructuredOutput}); got != 0 {
		t.Fatalf("failed outcome should count 0, got %d", got)
	}
}

func TestScoreIndependentOfRecovery(t *testing.T) {
	facts := intake.ClientFacts{Jurisdiction: "NY", IsMarried: true, EstimatedEstateValueCents: 800_000 * 100}

	failed := Assemble(recovery.Recover(recovery.RawOutput{Console: "model crashed"}),
		scoring.Score(facts, scoring.IssueCounts{}))
	recovered := Assemble(recovery.Recover(recovery.RawOutput{File: `{"score":100,"missingDocuments":[]}`}),
		scoring.Score(facts, scoring.IssueCounts{}))

	if diff := cmp.Diff(failed.ScoreBreakdown, recovered.ScoreBreakdown); diff != "" {
		t.Fatalf("score depends on recovery (-failed +recovered):\n%s", diff)
	}
}

func TestSerialized(t *testing.T) {
	rec := AnalysisRecord{
		MissingDocuments:   []any{map[string]any{"document": "Will"}},
		StateSpecificNotes: []any{"note"},
	}
	got, err := rec.Serialized()
	if err != nil {
		t.Fatalf("Serialized: %v", err)
	}
	want := SerializedLists{
		MissingDocuments:   `[{"document":"Will"}]`,
		OutdatedDocuments:  `[]`,
		Inconsistencies:    `[]`,
		Recommendations:    `[]`,
		StateSpecificNotes: `["note"]`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("serialized mismatch (-want +got):\n%s", diff)
	}
}
