package sanitize

import (
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"valid float passes through", 12.5, 12.5},
		{"zero stays zero", 0.0, 0.0},
		{"int converts", 7, 7.0},
		{"negative coerced to zero", -5.0, 0.0},
		{"NaN coerced to zero", math.NaN(), 0.0},
		{"positive infinity coerced to zero", math.Inf(1), 0.0},
		{"negative infinity coerced to zero", math.Inf(-1), 0.0},
		{"numeric string parses", "42.75", 42.75},
		{"comma decimal parses", "12,5", 12.5},
		{"whitespace trimmed", "  3.5 ", 3.5},
		{"garbage string coerced to zero", "abc", 0.0},
		{"negative string coerced to zero", "-5", 0.0},
		{"empty string coerced to zero", "", 0.0},
		{"nil coerced to zero", nil, 0.0},
		{"unsupported type coerced to zero", struct{}{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Number(tt.in)
			if got != tt.want {
				t.Errorf("Number(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got < 0 || math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("Number(%v) = %v is not a finite non-negative value", tt.in, got)
			}
		})
	}
}
