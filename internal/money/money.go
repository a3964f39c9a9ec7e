// Package money holds the pure monetary arithmetic shared by the import, sale
// and debt flows: currency normalization into the ledger currency and
// proportional allocation of a payment across weighted lines.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate reports a missing or non-positive exchange rate for an amount
// that requires conversion.
var ErrInvalidRate = errors.New("invalid exchange rate")

// Places is the scale every persisted amount is rounded to.
const Places = 2

// Round rounds an amount to the persisted scale.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Places)
}

// ToLedger converts amount from its currency into the ledger currency using
// rate. Amounts already in the ledger currency pass through unchanged and the
// rate is ignored.
func ToLedger(amount decimal.Decimal, currency, ledgerCurrency string, rate decimal.Decimal) (decimal.Decimal, error) {
	if currency == ledgerCurrency {
		return amount, nil
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, ErrInvalidRate
	}
	return amount.Mul(rate), nil
}

// Allocate splits total across lines proportionally to their weights, rounding
// each share to the persisted scale. The last line absorbs the rounding
// residual so the shares always sum to exactly Round(total). Rounded shares are
// capped at whatever is still unallocated, so no share is ever negative.
//
// All weights must be non-negative. A zero weight sum yields all-zero shares
// regardless of total.
func Allocate(weights []decimal.Decimal, total decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return shares
	}

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if sum.LessThanOrEqual(decimal.Zero) {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}

	total = Round(total)
	allocated := decimal.Zero
	for i, w := range weights {
		if i == len(weights)-1 {
			// residual absorption keeps the sum exact
			shares[i] = total.Sub(allocated)
			break
		}
		share := Round(w.Div(sum).Mul(total))
		if remaining := total.Sub(allocated); share.GreaterThan(remaining) {
			share = remaining
		}
		shares[i] = share
		allocated = allocated.Add(share)
	}
	return shares
}
