package reconcile

import "github.com/shopspring/decimal"

// Source tags which amount field produced a derived quantity.
type Source string

const (
	SourceOriginalAmount    Source = "original_amount"
	SourceTotalPlusDiscount Source = "total_plus_discount"
	SourceTotalAmount       Source = "total_amount"
)

// DerivationInput carries the purchase amounts a derivation looks at.
// VoucherDiscount is zero when the purchase has no voucher row.
type DerivationInput struct {
	TotalAmount     decimal.Decimal
	OriginalAmount  decimal.NullDecimal
	VoucherDiscount decimal.Decimal
}

// Derivation is the outcome of a successful quantity derivation.
type Derivation struct {
	Quantity int
	Source   Source
}

// Derive reconstructs the intended quantity of a purchase from its stored
// amounts and the product's unit price. The amount fields are consulted in
// priority order: original_amount is the pre-discount total and divides
// cleanly; failing that, adding the voucher discount back onto total_amount
// recovers the pre-discount figure; the bare total is the last resort.
//
// Division results round half away from zero and are clamped to a minimum of
// one unit. Returns ok=false when the unit price is missing or non-positive;
// the caller must skip the row rather than write a garbage quantity.
func Derive(in DerivationInput, unitPrice decimal.NullDecimal) (Derivation, bool) {
	if !unitPrice.Valid || !unitPrice.Decimal.IsPositive() {
		return Derivation{}, false
	}
	price := unitPrice.Decimal

	if in.OriginalAmount.Valid && in.OriginalAmount.Decimal.IsPositive() {
		return Derivation{
			Quantity: quantize(in.OriginalAmount.Decimal, price),
			Source:   SourceOriginalAmount,
		}, true
	}

	if in.VoucherDiscount.IsPositive() {
		return Derivation{
			Quantity: quantize(in.TotalAmount.Add(in.VoucherDiscount), price),
			Source:   SourceTotalPlusDiscount,
		}, true
	}

	return Derivation{
		Quantity: quantize(in.TotalAmount, price),
		Source:   SourceTotalAmount,
	}, true
}

// quantize divides amount by price, rounds half away from zero, and clamps
// the result to at least one unit.
func quantize(amount, price decimal.Decimal) int {
	qty := int(amount.Div(price).Round(0).IntPart())
	if qty < 1 {
		return 1
	}
	return qty
}
