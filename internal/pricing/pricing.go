package pricing

import (
	"fmt"
	"math"
)

// VATRate is the UAE VAT applied on the subtotal (5%).
const VATRate = 0.05

// Line is one priced cart or buy-now entry. Amounts are in AED.
// PromotionPrice is only meaningful when HasPromotion is true.
type Line struct {
	UnitPrice      float64
	PromotionPrice float64
	HasPromotion   bool
	Quantity       int
}

// Totals is the aggregated result of pricing a set of lines.
// Values are unrounded; rounding happens at display time only.
type Totals struct {
	Subtotal      float64
	OriginalTotal float64
	Savings       float64
	VATAmount     float64
	TotalAmount   float64
	ItemCount     int
}

// EffectiveUnitPrice returns the promotion price when a promotion is active,
// otherwise the list price.
func EffectiveUnitPrice(l Line) float64 {
	if l.HasPromotion && l.PromotionPrice > 0 {
		return l.PromotionPrice
	}
	return l.UnitPrice
}

// Calculate prices a set of lines with the given VAT rate.
func Calculate(lines []Line, vatRate float64) Totals {
	var t Totals

	for _, l := range lines {
		qty := float64(l.Quantity)
		t.Subtotal += EffectiveUnitPrice(l) * qty
		t.OriginalTotal += l.UnitPrice * qty
		t.ItemCount += l.Quantity
	}

	t.Savings = t.OriginalTotal - t.Subtotal
	t.VATAmount = t.Subtotal * vatRate
	t.TotalAmount = t.Subtotal + t.VATAmount

	return t
}

// FormatAED renders an amount for display with two decimals.
func FormatAED(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "AED 0.00"
	}
	return fmt.Sprintf("AED %.2f", amount)
}

// ToFils converts an AED amount to fils, the smallest currency unit.
// Payment processors expect integer minor units.
func ToFils(aed float64) int64 {
	return int64(math.Round(aed * 100))
}

// FromFils converts fils back to AED.
func FromFils(fils int64) float64 {
	return float64(fils) / 100
}
