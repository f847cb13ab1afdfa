package recovery

import "strings"

// step is one pipeline stage: a region locator plus whether the region is
// parsed as-is or through Repair.
type step struct {
	strategy Strategy
	channel  string
	locate   func(RawOutput) (string, bool)
	repair   bool
}

var pipeline = []step{
	{StrategyFileDirect, ChannelFile, fileText, false},
	{StrategyFileRepaired, ChannelFile, fileText, true},
	{StrategyConsoleFenced, ChannelConsole, onConsole(fenced), false},
	{StrategyConsoleAnchored, ChannelConsole, onConsole(anchoredRegion), false},
	{StrategyConsoleAnchoredRepaired, ChannelConsole, onConsole(anchoredRegion), true},
	{StrategyConsoleKeyed, ChannelConsole, onConsole(keyedRegion), false},
	{StrategyConsoleKeyedRepaired, ChannelConsole, onConsole(keyedRegion), true},
}

// Recover runs the strategies in order and returns the first record found.
// It never panics on malformed input; failure is reported through Outcome.Err.
func Recover(raw RawOutput) Outcome {
	out := Outcome{Diagnostics: Diagnostics{
		FileLength:    len(raw.File),
		ConsoleLength: len(raw.Console),
		HasFile:       strings.TrimSpace(raw.File) != "",
		HasConsole:    strings.TrimSpace(raw.Console) != "",
	}}

	for _, s := range pipeline {
		region, ok := s.locate(raw)
		if !ok {
			continue
		}
		out.Diagnostics.Tried = append(out.Diagnostics.Tried, s.strategy)

		channelLen := len(raw.Console)
		if s.channel == ChannelFile {
			channelLen = len(raw.File)
		}

		if !s.repair {
			rec, err := parseRecord(region)
			if err != nil {
				continue
			}
			out.Record = rec
			out.Provenance = Provenance{
				Strategy:       s.strategy,
				Channel:        s.channel,
				DiscardedBytes: channelLen - len(region),
			}
			return out
		}

		r, ok := Repair(region)
		if !ok {
			continue
		}
		out.Record = r.Record
		out.Provenance = Provenance{
			Strategy:       s.strategy,
			Channel:        s.channel,
			DiscardedBytes: channelLen - len(region) + r.Discarded,
			RepairAttempts: r.Attempts,
		}
		return out
	}

	out.Err = ErrNoStructuredOutput
	return out
}

func fileText(raw RawOutput) (string, bool) {
	text := strings.TrimSpace(raw.File)
	return text, text != ""
}

func onConsole(locate func(string) (string, bool)) func(RawOutput) (string, bool) {
	return func(raw RawOutput) (string, bool) {
		if strings.TrimSpace(raw.Console) == "" {
			return "", false
		}
		return locate(raw.Console)
	}
}
