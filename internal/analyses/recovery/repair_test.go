package recovery

import (
	"encoding/json"
	"testing"
)

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "truncated inside nested object in array",
			in:   `{"score":1,"missingDocuments":[{"document":"Will","priority":"high"`,
			want: `{"score":1,"missingDocuments":[{"document":"Will","priority":"high"}]}`,
		},
		{
			name: "already valid",
			in:   `{"a":1,"b":[1,2]}`,
			want: `{"a":1,"b":[1,2]}`,
		},
		{
			name: "interleaved nesting closes innermost first",
			in:   `{"a":[{"b":[1,2`,
			want: `{"a":[{"b":[1,2]}]}`,
		},
		{
			name: "dangling key",
			in:   `{"a":1,"b":`,
			want: `{"a":1}`,
		},
		{
			name: "dangling key without colon",
			in:   `{"a":1,"b"`,
			want: `{"a":1}`,
		},
		{
			name: "bare trailing comma",
			in:   `{"a":[1,2],`,
			want: `{"a":[1,2]}`,
		},
		{
			name: "unterminated string after complete member is dropped",
			in:   `{"missingDocuments":[{"document":"Will"}],"summary":"The client has`,
			want: `{"missingDocuments":[{"document":"Will"}]}`,
		},
		{
			name: "unterminated first array element is closed in place",
			in:   `{"missingDocuments":[{"document":"Will"}],"recommendations":["Create a`,
			want: `{"missingDocuments":[{"document":"Will"}],"recommendations":["Create a"]}`,
		},
		{
			name: "unterminated array after complete member",
			in:   `{"a":1,"b":[{"c":`,
			want: `{"a":1,"b":[{}]}`,
		},
		{
			name: "partial literal",
			in:   `{"a":1,"b":tru`,
			want: `{"a":1}`,
		},
		{
			name: "number at end of input is kept",
			in:   `{"a":"x","score":85`,
			want: `{"a":"x","score":85}`,
		},
		{
			name: "trailing prose after object",
			in:   `{"a":1} and then {"b":2}`,
			want: `{"a":1}`,
		},
		{
			name: "leading prose",
			in:   `Here it is: {"a":1,"b":"x`,
			want: `{"a":1}`,
		},
		{
			name: "invalid token inside closed object",
			in:   `{"a":1,"b":xyz,"c":2}`,
			want: `{"a":1}`,
		},
		{
			name: "braces inside strings",
			in:   `{"note":"use { and [ freely","list":["}"`,
			want: `{"note":"use { and [ freely","list":["}"]}`,
		},
		{
			name: "dangling backslash",
			in:   `{"note":"path C:\`,
			want: `{"note":"path C:"}`,
		},
		{
			name: "partial unicode escape",
			in:   `{"note":"caf\u00`,
			want: `{"note":"caf"}`,
		},
		{
			name: "escaped quote inside string",
			in:   `{"quote":"he said \"hi\"","n":2,"tail":"cut`,
			want: `{"quote":"he said \"hi\"","n":2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Repair(tt.in)
			if !ok {
				t.Fatalf("expected repair to succeed for %q", tt.in)
			}
			if got.Text != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.Text)
			}
			if !json.Valid([]byte(got.Text)) {
				t.Fatalf("repaired text does not parse: %s", got.Text)
			}
		})
	}
}

func TestRepairRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"no braces here",
		"{}",
		`{"`,
		`{"key`,
		`[1,2,3]`,
	} {
		if got, ok := Repair(in); ok {
			t.Fatalf("expected %q to be unrepairable, got %s", in, got.Text)
		}
	}
}

func TestRepairScenarioRecord(t *testing.T) {
	got, ok := Repair(`{"score":1,"missingDocuments":[{"document":"Will","priority":"high"`)
	if !ok {
		t.Fatalf("expected repair to succeed")
	}
	docs, ok := got.Record["missingDocuments"].([]any)
	if !ok || len(docs) != 1 {
		t.Fatalf("expected one missing document, got %#v", got.Record["missingDocuments"])
	}
	entry, _ := docs[0].(map[string]any)
	if entry["document"] != "Will" || entry["priority"] != "high" {
		t.Fatalf("unexpected entry %#v", entry)
	}
	if got.Attempts != 1 {
		t.Fatalf("expected first attempt to succeed, got %d", got.Attempts)
	}
}

func TestRepairDiscardedBytes(t *testing.T) {
	in := `Here it is: {"a":1,"b":"x`
	got, ok := Repair(in)
	if !ok {
		t.Fatalf("expected repair to succeed")
	}
	if want := len(in) - len(`{"a":1`); got.Discarded != want {
		t.Fatalf("expected %d discarded bytes, got %d", want, got.Discarded)
	}
}

func TestRepairUsesParserOffset(t *testing.T) {
	got, ok := Repair(`{"a":1,"b":xyz,"c":2}`)
	if !ok {
		t.Fatalf("expected repair to succeed")
	}
	if got.Attempts != 2 {
		t.Fatalf("expected a single retraction, got %d attempts", got.Attempts)
	}
}

func TestRepairIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"score":1,"missingDocuments":[{"document":"Will","priority":"high"`,
		`{"a":[{"b":[1,2`,
		`noise {"a":1,"b":"x`,
		`{"note":"caf\u00`,
	}
	for _, in := range inputs {
		first, ok := Repair(in)
		if !ok {
			t.Fatalf("expected %q to repair", in)
		}
		second, ok := Repair(first.Text)
		if !ok || second.Text != first.Text {
			t.Fatalf("repair not idempotent for %q: %q then %q", in, first.Text, second.Text)
		}
		if second.Discarded != 0 {
			t.Fatalf("expected nothing discarded on valid text, got %d", second.Discarded)
		}
	}
}

func TestRepairAtLastMember(t *testing.T) {
	got, ok := repairAtLastMember(`{"a":"x","b":{"c":`)
	if !ok {
		t.Fatalf("expected fallback to succeed")
	}
	if got.Text != `{"a":"x"}` || !got.Fallback {
		t.Fatalf("unexpected fallback result %+v", got)
	}

	if _, ok := repairAtLastMember(`{"a":1`); ok {
		t.Fatalf("expected fallback to fail without a string boundary")
	}
}

func TestRepairKeepsNumbersExact(t *testing.T) {
	got, ok := Repair(`{"big":12345678901234567890,"cut":"x`)
	if !ok {
		t.Fatalf("expected repair to succeed")
	}
	n, ok := got.Record["big"].(json.Number)
	if !ok || n.String() != "12345678901234567890" {
		t.Fatalf("expected exact json.Number, got %#v", got.Record["big"])
	}
}
