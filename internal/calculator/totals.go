// Package calculator derives invoice totals from line items. All functions
// are pure: same sanitized inputs, same outputs, no side effects.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/sanitize"
)

// ExemptionNote is the annotation for VAT-exempt small businesses.
const ExemptionNote = "Gemäß § 19 UStG wird keine Umsatzsteuer berechnet."

// Options selects the optional extensions of the totals computation.
// VAT and deposit are independent: either, both, or neither may apply.
type Options struct {
	// ApplyVAT enables the tax line; VATPercent is the rate in percent.
	ApplyVAT   bool
	VATPercent float64

	// ExemptionNote surfaces the § 19 UStG annotation when the effective
	// VAT rate is zero. Text only, no numeric effect.
	ExemptionNote bool

	// ApplyDeposit enables the Anzahlung deduction.
	ApplyDeposit bool
	Deposit      float64
}

// Totals is the computed result for display and PDF rendering.
type Totals struct {
	Subtotal   float64
	Tax        float64
	GrandTotal float64
	Deposit    float64
	// Remainder is max(0, subtotal+tax-deposit); the deposit never drives
	// the amount owed negative.
	Remainder float64

	HasTax     bool
	HasDeposit bool
	// Note carries the exemption annotation when applicable, else "".
	Note string
}

// LineTotal returns quantity × unit price for one item, inputs sanitized.
func LineTotal(item models.LineItem) float64 {
	q := decimal.NewFromFloat(sanitize.Number(item.Quantity))
	p := decimal.NewFromFloat(sanitize.Number(item.UnitPrice))
	f, _ := q.Mul(p).Float64()
	return f
}

// Compute derives subtotal, optional tax, optional deposit deduction and the
// grand/remaining total from the items in the order given. Accumulation uses
// decimals so that sums of typical money values carry no float drift.
func Compute(items []models.LineItem, opts Options) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		q := decimal.NewFromFloat(sanitize.Number(item.Quantity))
		p := decimal.NewFromFloat(sanitize.Number(item.UnitPrice))
		subtotal = subtotal.Add(q.Mul(p))
	}

	grand := subtotal
	var totals Totals

	if opts.ApplyVAT {
		rate := decimal.NewFromFloat(sanitize.Number(opts.VATPercent))
		if rate.IsZero() {
			if opts.ExemptionNote {
				totals.Note = ExemptionNote
			}
		} else {
			tax := subtotal.Mul(rate).Div(decimal.NewFromInt(100))
			grand = subtotal.Add(tax)
			totals.Tax, _ = tax.Float64()
			totals.HasTax = true
		}
	}

	remainder := grand
	if opts.ApplyDeposit {
		deposit := decimal.NewFromFloat(sanitize.Number(opts.Deposit))
		remainder = grand.Sub(deposit)
		if remainder.IsNegative() {
			remainder = decimal.Zero
		}
		totals.Deposit, _ = deposit.Float64()
		totals.HasDeposit = true
	}

	totals.Subtotal, _ = subtotal.Float64()
	totals.GrandTotal, _ = grand.Float64()
	totals.Remainder, _ = remainder.Float64()
	return totals
}
