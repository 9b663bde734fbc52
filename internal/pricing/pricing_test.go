package pricing

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestCalculateSingleLine(t *testing.T) {
	totals := Calculate([]Line{
		{UnitPrice: 100, Quantity: 2},
	}, VATRate)

	if !almostEqual(totals.Subtotal, 200) {
		t.Fatalf("subtotal = %v, want 200", totals.Subtotal)
	}
	if !almostEqual(totals.VATAmount, 10) {
		t.Fatalf("vat = %v, want 10", totals.VATAmount)
	}
	if !almostEqual(totals.TotalAmount, 210) {
		t.Fatalf("total = %v, want 210", totals.TotalAmount)
	}
	if totals.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", totals.ItemCount)
	}
}

func TestCalculateWithPromotion(t *testing.T) {
	// p2: price 50, promotion 40, qty 1; p1: price 100, qty 2.
	totals := Calculate([]Line{
		{UnitPrice: 50, PromotionPrice: 40, HasPromotion: true, Quantity: 1},
		{UnitPrice: 100, Quantity: 2},
	}, VATRate)

	if !almostEqual(totals.Subtotal, 240) {
		t.Fatalf("subtotal = %v, want 240", totals.Subtotal)
	}
	if !almostEqual(totals.OriginalTotal, 250) {
		t.Fatalf("original total = %v, want 250", totals.OriginalTotal)
	}
	if !almostEqual(totals.Savings, 10) {
		t.Fatalf("savings = %v, want 10", totals.Savings)
	}
	if !almostEqual(totals.VATAmount, 12) {
		t.Fatalf("vat = %v, want 12", totals.VATAmount)
	}
	if !almostEqual(totals.TotalAmount, 252) {
		t.Fatalf("total = %v, want 252", totals.TotalAmount)
	}
}

func TestCalculateEmpty(t *testing.T) {
	totals := Calculate(nil, VATRate)
	if totals.Subtotal != 0 || totals.TotalAmount != 0 || totals.ItemCount != 0 {
		t.Fatalf("empty cart should produce zero totals, got %+v", totals)
	}
}

func TestTotalsConsistency(t *testing.T) {
	lines := []Line{
		{UnitPrice: 19.99, Quantity: 3},
		{UnitPrice: 45.50, PromotionPrice: 39.00, HasPromotion: true, Quantity: 2},
		{UnitPrice: 7.25, PromotionPrice: 0, HasPromotion: true, Quantity: 5},
	}
	totals := Calculate(lines, VATRate)

	if !almostEqual(totals.TotalAmount, totals.Subtotal+totals.VATAmount) {
		t.Fatalf("grand total %v != subtotal %v + vat %v", totals.TotalAmount, totals.Subtotal, totals.VATAmount)
	}
	if !almostEqual(totals.VATAmount, totals.Subtotal*VATRate) {
		t.Fatalf("vat %v != subtotal * rate", totals.VATAmount)
	}
	if totals.Subtotal > totals.OriginalTotal+eps {
		t.Fatalf("subtotal %v exceeds original total %v", totals.Subtotal, totals.OriginalTotal)
	}
}

func TestEffectiveUnitPriceIgnoresZeroPromotion(t *testing.T) {
	// hasPromotion set but no promotion price recorded: fall back to list price.
	l := Line{UnitPrice: 30, PromotionPrice: 0, HasPromotion: true, Quantity: 1}
	if got := EffectiveUnitPrice(l); got != 30 {
		t.Fatalf("effective price = %v, want 30", got)
	}
}

func TestFormatAED(t *testing.T) {
	if got := FormatAED(210); got != "AED 210.00" {
		t.Fatalf("FormatAED(210) = %q", got)
	}
	if got := FormatAED(math.NaN()); got != "AED 0.00" {
		t.Fatalf("FormatAED(NaN) = %q", got)
	}
}

func TestFilsRoundTrip(t *testing.T) {
	if got := ToFils(210.50); got != 21050 {
		t.Fatalf("ToFils = %d, want 21050", got)
	}
	if got := FromFils(21050); !almostEqual(got, 210.50) {
		t.Fatalf("FromFils = %v, want 210.5", got)
	}
}
