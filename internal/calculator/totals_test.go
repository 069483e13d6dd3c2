package calculator

import (
	"math"
	"testing"

	"github.com/qalinsara/rechnung/internal/models"
)

func TestCompute(t *testing.T) {
	items := func(pairs ...[2]float64) []models.LineItem {
		out := make([]models.LineItem, len(pairs))
		for i, p := range pairs {
			out[i] = models.LineItem{Quantity: p[0], UnitPrice: p[1]}
		}
		return out
	}

	tests := []struct {
		name         string
		items        []models.LineItem
		opts         Options
		wantSubtotal float64
		wantTax      float64
		wantGrand    float64
		wantRemain   float64
		wantNote     string
	}{
		{
			name:         "plain subtotal",
			items:        items([2]float64{2, 10}, [2]float64{3, 5}),
			wantSubtotal: 35,
			wantGrand:    35,
			wantRemain:   35,
		},
		{
			name:         "vat 19 percent",
			items:        items([2]float64{1, 100}),
			opts:         Options{ApplyVAT: true, VATPercent: 19},
			wantSubtotal: 100,
			wantTax:      19,
			wantGrand:    119,
			wantRemain:   119,
		},
		{
			name:         "vat zero with exemption note",
			items:        items([2]float64{1, 100}),
			opts:         Options{ApplyVAT: true, VATPercent: 0, ExemptionNote: true},
			wantSubtotal: 100,
			wantGrand:    100,
			wantRemain:   100,
			wantNote:     ExemptionNote,
		},
		{
			name:         "vat zero without flag has no note",
			items:        items([2]float64{1, 100}),
			opts:         Options{ApplyVAT: true, VATPercent: 0},
			wantSubtotal: 100,
			wantGrand:    100,
			wantRemain:   100,
		},
		{
			name:         "deposit reduces remainder",
			items:        items([2]float64{1, 100}),
			opts:         Options{ApplyDeposit: true, Deposit: 40},
			wantSubtotal: 100,
			wantGrand:    100,
			wantRemain:   60,
		},
		{
			name:         "deposit above total clamps at zero",
			items:        items([2]float64{1, 100}),
			opts:         Options{ApplyDeposit: true, Deposit: 150},
			wantSubtotal: 100,
			wantGrand:    100,
			wantRemain:   0,
		},
		{
			name:         "negative inputs sanitized to zero",
			items:        items([2]float64{-2, 10}, [2]float64{3, 5}),
			opts:         Options{ApplyDeposit: true, Deposit: -40},
			wantSubtotal: 15,
			wantGrand:    15,
			wantRemain:   15,
		},
		{
			name:         "no items",
			items:        nil,
			wantSubtotal: 0,
			wantGrand:    0,
			wantRemain:   0,
		},
		{
			name: "decimal accumulation has no drift",
			items: items(
				[2]float64{0.1, 1}, [2]float64{0.1, 1}, [2]float64{0.1, 1},
				[2]float64{0.1, 1}, [2]float64{0.1, 1}, [2]float64{0.1, 1},
				[2]float64{0.1, 1}, [2]float64{0.1, 1}, [2]float64{0.1, 1},
				[2]float64{0.1, 1},
			),
			wantSubtotal: 1,
			wantGrand:    1,
			wantRemain:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.items, tt.opts)
			if got.Subtotal != tt.wantSubtotal {
				t.Errorf("Subtotal = %v, want %v", got.Subtotal, tt.wantSubtotal)
			}
			if got.Tax != tt.wantTax {
				t.Errorf("Tax = %v, want %v", got.Tax, tt.wantTax)
			}
			if got.GrandTotal != tt.wantGrand {
				t.Errorf("GrandTotal = %v, want %v", got.GrandTotal, tt.wantGrand)
			}
			if got.Remainder != tt.wantRemain {
				t.Errorf("Remainder = %v, want %v", got.Remainder, tt.wantRemain)
			}
			if got.Note != tt.wantNote {
				t.Errorf("Note = %q, want %q", got.Note, tt.wantNote)
			}
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	items := []models.LineItem{
		{Quantity: 12.34, UnitPrice: 56.78},
		{Quantity: 0.07, UnitPrice: 19.99},
	}
	opts := Options{ApplyVAT: true, VATPercent: 19}

	first := Compute(items, opts)
	for i := 0; i < 100; i++ {
		if got := Compute(items, opts); got != first {
			t.Fatalf("Compute not deterministic: run %d = %+v, first = %+v", i, got, first)
		}
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(models.LineItem{Quantity: 2.5, UnitPrice: 4}); got != 10 {
		t.Errorf("LineTotal = %v, want 10", got)
	}
	got := LineTotal(models.LineItem{Quantity: math.Inf(1), UnitPrice: 4})
	if got != 0 {
		t.Errorf("LineTotal with infinite quantity = %v, want 0", got)
	}
}
