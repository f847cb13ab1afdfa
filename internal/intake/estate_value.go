package intake

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// estateBuckets maps normalized bucket labels to a representative dollar value.
var estateBuckets = map[string]int64{
	"under100k":  50_000,
	"under-100k": 50_000,
	"<100k":      50_000,
	"0-100k":     50_000,
	"100k-250k":  175_000,
	"250k-500k":  375_000,
	"100k-500k":  300_000,
	"500k-1m":    750_000,
	"1m-2m":      1_500_000,
	"2m-5m":      3_500_000,
	"5m+":        5_000_000,
	"over5m":     5_000_000,
	"over-5m":    5_000_000,
	">5m":        5_000_000,
}

const maxDollars = math.MaxInt64 / 100

func normalizeBucketLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = " " + strings.ReplaceAll(s, "_", " ") + " "
	s = strings.NewReplacer(
		"–", "-",
		"—", "-",
		"$", "",
		",", "",
		" to ", "-",
		"plus", "+",
		"less than", "under",
		"more than", "over",
	).Replace(s)
	s = strings.Join(strings.Fields(s), "")
	return strings.ReplaceAll(s, "-+", "+")
}

// estateValueCents converts a raw number or bucket label into cents. The
// second result is false when a label matched no bucket and held no digits.
func estateValueCents(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case float64:
		return dollarsToCents(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return dollarsToCents(f), true
	case string:
		return labelToCents(t)
	}
	return 0, false
}

func labelToCents(label string) (int64, bool) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return 0, true
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return dollarsToCents(f), true
	}
	if dollars, ok := estateBuckets[normalizeBucketLabel(trimmed)]; ok {
		return dollars * 100, true
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, trimmed)
	if digits == "" {
		return 0, false
	}
	dollars, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	if dollars > maxDollars {
		dollars = maxDollars
	}
	return dollars * 100, true
}

func dollarsToCents(dollars float64) int64 {
	if math.IsNaN(dollars) || dollars <= 0 {
		return 0
	}
	if dollars >= maxDollars {
		return maxDollars * 100
	}
	return int64(math.Round(dollars * 100))
}
