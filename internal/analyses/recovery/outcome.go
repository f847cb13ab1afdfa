package recovery

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrNoStructuredOutput is the failure reason when no strategy yields a record.
	ErrNoStructuredOutput = errors.New("no recoverable structured output")

	errNotObject = errors.New("top-level value is not an object")
)

// Strategy names the pipeline step that produced a record.
type Strategy string

const (
	StrategyFileDirect              Strategy = "file-direct"
	StrategyFileRepaired            Strategy = "file-repaired"
	StrategyConsoleFenced           Strategy = "console-fenced"
	StrategyConsoleAnchored         Strategy = "console-anchored"
	StrategyConsoleAnchoredRepaired Strategy = "console-anchored-repaired"
	StrategyConsoleKeyed            Strategy = "console-keyed"
	StrategyConsoleKeyedRepaired    Strategy = "console-keyed-repaired"
)

const (
	ChannelFile    = "file"
	ChannelConsole = "console"
)

// RawOutput is the generator's output: a side file and its console stream.
// Either may be empty.
type RawOutput struct {
	File    string
	Console string
}

// Record is a recovered top-level object. Numbers are json.Number.
type Record map[string]any

type Provenance struct {
	Strategy       Strategy `json:"strategy"`
	Channel        string   `json:"channel"`
	DiscardedBytes int      `json:"discardedBytes"`
	RepairAttempts int      `json:"repairAttempts,omitempty"`
}

// Diagnostics never carries channel content.
type Diagnostics struct {
	FileLength    int        `json:"fileLength"`
	ConsoleLength int        `json:"consoleLength"`
	HasFile       bool       `json:"hasFile"`
	HasConsole    bool       `json:"hasConsole"`
	Tried         []Strategy `json:"tried"`
}

type Outcome struct {
	Record      Record
	Provenance  Provenance
	Err         error
	Diagnostics Diagnostics
}

func (o Outcome) Recovered() bool {
	return o.Err == nil && o.Record != nil
}

// LogFields flattens the outcome for telemetry.
func (o Outcome) LogFields() map[string]any {
	tried := make([]string, 0, len(o.Diagnostics.Tried))
	for _, s := range o.Diagnostics.Tried {
		tried = append(tried, string(s))
	}
	fields := map[string]any{
		"recovered":       o.Recovered(),
		"fileLength":      o.Diagnostics.FileLength,
		"consoleLength":   o.Diagnostics.ConsoleLength,
		"hasFile":         o.Diagnostics.HasFile,
		"hasConsole":      o.Diagnostics.HasConsole,
		"strategiesTried": strings.Join(tried, ","),
	}
	if o.Recovered() {
		fields["strategy"] = string(o.Provenance.Strategy)
		fields["channel"] = o.Provenance.Channel
		fields["discardedBytes"] = o.Provenance.DiscardedBytes
		fields["repairAttempts"] = o.Provenance.RepairAttempts
	} else if o.Err != nil {
		fields["reason"] = o.Err.Error()
	}
	return fields
}

// parseRecord decodes text as a single JSON object, keeping numbers exact.
// Syntax errors come back as *json.SyntaxError so callers can read Offset.
func parseRecord(text string) (Record, error) {
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, errNotObject
	}
	if rec == nil {
		return nil, errNotObject
	}
	return Record(rec), nil
}
