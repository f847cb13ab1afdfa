package intake

import (
	"encoding/json"
	"testing"
)

func TestEstateValueCents(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{name: "absent", in: nil, want: 0, wantOK: true},
		{name: "number", in: float64(1_200_000), want: 120_000_000, wantOK: true},
		{name: "fractional", in: float64(10.5), want: 1050, wantOK: true},
		{name: "negative number", in: float64(-10), want: 0, wantOK: true},
		{name: "json number", in: json.Number("250000"), want: 25_000_000, wantOK: true},
		{name: "numeric string", in: "750000", want: 75_000_000, wantOK: true},
		{name: "under 100k", in: "Under $100k", want: 5_000_000, wantOK: true},
		{name: "snake bucket", in: "under_100k", want: 5_000_000, wantOK: true},
		{name: "range with spaces", in: "$100k - $250k", want: 17_500_000, wantOK: true},
		{name: "wide range", in: "$100K-$500K", want: 30_000_000, wantOK: true},
		{name: "to range", in: "$500k to $1M", want: 75_000_000, wantOK: true},
		{name: "en dash", in: "$1M–$2M", want: 150_000_000, wantOK: true},
		{name: "two to five", in: "2m-5m", want: 350_000_000, wantOK: true},
		{name: "plus", in: "$5M+", want: 500_000_000, wantOK: true},
		{name: "plus word", in: "5m_plus", want: 500_000_000, wantOK: true},
		{name: "unknown label with digits", in: "about $300,000", want: 30_000_000, wantOK: true},
		{name: "unknown label no digits", in: "lots", want: 0, wantOK: false},
		{name: "overflowing digits", in: "9999999999999999999999 dollars", want: 0, wantOK: false},
		{name: "bool", in: true, want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := estateValueCents(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("estateValueCents(%#v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
