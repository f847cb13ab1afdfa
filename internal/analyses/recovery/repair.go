package recovery

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	maxRepairAttempts = 50
	// shortest prefix that can hold one member: {"":0
	minRepairLength = 6
	retractChunk    = 64
)

// Repaired is the result of a successful Repair.
type Repaired struct {
	Text      string
	Record    Record
	Attempts  int
	Discarded int
	Fallback  bool
}

// Repair turns truncated or trailing-garbage object text into a parseable,
// non-empty object. Text that already parses is returned unchanged. The
// result depends only on the input.
func Repair(text string) (Repaired, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return Repaired{}, false
	}
	body := text[start:]

	end := len(body)
	attempts := 0
	for attempts < maxRepairAttempts && end > 0 {
		if attempts > 0 && end < minRepairLength {
			break
		}
		attempts++

		c, ok := complete(body[:end])
		if !ok {
			break
		}
		rec, err := parseRecord(c.text)
		if err == nil {
			if len(rec) == 0 {
				break
			}
			return Repaired{
				Text:      c.text,
				Record:    rec,
				Attempts:  attempts,
				Discarded: len(text) - c.kept,
			}, true
		}
		end = nextEnd(end, c.kept, err)
	}

	if r, ok := repairAtLastMember(body); ok {
		r.Attempts = attempts + 1
		r.Discarded += start
		return r, true
	}
	return Repaired{}, false
}

// nextEnd moves the cut in front of the byte the parser rejected, or back by
// a fixed chunk when the error carries no usable offset.
func nextEnd(end, kept int, err error) int {
	next := end - retractChunk
	var syn *json.SyntaxError
	if errors.As(err, &syn) && syn.Offset > 0 {
		bad := int(syn.Offset) - 1
		if bad < kept {
			next = bad
		} else {
			next = kept - 1
		}
	}
	if next >= end {
		next = end - 1
	}
	return next
}

// repairAtLastMember cuts after the last `",` boundary and closes with raw
// bracket counts.
func repairAtLastMember(body string) (Repaired, bool) {
	cut := strings.LastIndex(body, `",`)
	if cut < 0 {
		return Repaired{}, false
	}
	kept := body[:cut+1]
	arrays := strings.Count(kept, "[") - strings.Count(kept, "]")
	objects := strings.Count(kept, "{") - strings.Count(kept, "}")
	candidate := kept
	if arrays > 0 {
		candidate += strings.Repeat("]", arrays)
	}
	if objects > 0 {
		candidate += strings.Repeat("}", objects)
	}
	rec, err := parseRecord(candidate)
	if err != nil || len(rec) == 0 {
		return Repaired{}, false
	}
	return Repaired{
		Text:      candidate,
		Record:    rec,
		Discarded: len(body) - len(kept),
		Fallback:  true,
	}, true
}
