package intake

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var errNotObject = errors.New("section is not an object")

// section is a decoded intake section. A nil section answers every lookup
// with nil, so callers never branch on presence.
type section map[string]any

func parseSection(raw json.RawMessage) (section, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal([]byte(trimmed), &text); err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
		trimmed = text
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errNotObject
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, err
	}
	return section(out), nil
}

// value looks up a camelCase key, falling back to its snake_case spelling.
func (s section) value(key string) any {
	if s == nil {
		return nil
	}
	if v, ok := s[key]; ok && v != nil {
		return v
	}
	if v, ok := s[snakeCase(key)]; ok {
		return v
	}
	return nil
}

func (s section) flag(key string) bool {
	return truthy(s.value(key))
}

func (s section) count(key string) int {
	return nonNegativeInt(s.value(key))
}

func (s section) text(key string) string {
	str, _ := s.value(key).(string)
	return strings.TrimSpace(str)
}

func snakeCase(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := rune(key[i-1])
				if !unicode.IsUpper(prev) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// truthy accepts true and the strings "yes", "true" and "1" in any case.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "true", "1":
			return true
		}
	}
	return false
}

func nonNegativeInt(v any) int {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}
	if math.IsNaN(n) || n <= 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}
