package recovery

import (
	"encoding/json"
	"strings"
	"testing"
)

// FuzzRepair checks that any accepted repair parses and is a fixed point.
func FuzzRepair(f *testing.F) {
	seeds := []string{
		`{"score":1,"missingDocuments":[{"document":"Will","priority":"high"`,
		`{"a":[{"b":[1,2`,
		`{"a":"x","b":{"c":`,
		`{"note":"caf\u00`,
		`{"note":"path C:\`,
		`text {"score": 4} more`,
		`{"a":1,"b":xyz,"c":2}`,
		`{}`,
		`{"`,
		`{"a":"line` + "\n" + `break"}`,
		`{"deep":` + strings.Repeat(`[`, 40) + `1`,
		`{"deep":` + strings.Repeat(`{"k":`, 40) + `"v"`,
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		got, ok := Repair(in)
		if !ok {
			return
		}
		if !json.Valid([]byte(got.Text)) {
			t.Fatalf("repair produced invalid JSON %q from %q", got.Text, in)
		}
		if len(got.Record) == 0 {
			t.Fatalf("repair accepted an empty record from %q", in)
		}
		if got.Attempts < 1 || got.Attempts > maxRepairAttempts+1 {
			t.Fatalf("attempts out of range: %d", got.Attempts)
		}
		again, ok := Repair(got.Text)
		if !ok || again.Text != got.Text {
			t.Fatalf("repair not idempotent: %q then %q", got.Text, again.Text)
		}
	})
}
