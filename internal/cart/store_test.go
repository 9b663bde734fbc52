package cart

import (
	"context"
	"errors"
	"testing"

	"paws/internal/catalog"

	"go.uber.org/zap"
)

type stubPersister struct {
	blobs   map[string][]byte
	loadErr error
	saveErr error
	saves   int
	deletes int
}

func newStubPersister() *stubPersister {
	return &stubPersister{blobs: map[string][]byte{}}
}

func (p *stubPersister) Load(_ context.Context, key string) ([]byte, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return p.blobs[key], nil
}

func (p *stubPersister) Save(_ context.Context, key string, payload []byte) error {
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.blobs[key] = payload
	return nil
}

func (p *stubPersister) Delete(_ context.Context, key string) error {
	p.deletes++
	delete(p.blobs, key)
	return nil
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) Notify(_ context.Context, e Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) last() Event {
	if len(r.events) == 0 {
		return Event{}
	}
	return r.events[len(r.events)-1]
}

func intPtr(v int) *int { return &v }

func record(id string, price float64, stock *int, promo float64) catalog.Record {
	rec := catalog.Record{ID: id, Name: "item " + id, Price: price, StockQuantity: stock, Unit: "piece"}
	if promo > 0 {
		rec.Promotion = &catalog.Promotion{Price: promo}
	}
	return rec
}

func newTestStore() (*Store, *stubPersister, *eventRecorder) {
	p := newStubPersister()
	r := &eventRecorder{}
	return NewStore(p, r, zap.NewNop().Sugar()), p, r
}

func TestAddItemCapsAtStock(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestStore()

	ok, reason := s.AddItem(ctx, "sess", record("p1", 100, intPtr(3), 0), 2)
	if !ok || reason != "" {
		t.Fatalf("first add failed: ok=%v reason=%q", ok, reason)
	}

	items := s.Items(ctx, "sess")
	if len(items) != 1 || items[0].Quantity != 2 || items[0].MaxAllowed != 3 {
		t.Fatalf("unexpected items after add: %+v", items)
	}

	totals := s.Totals(ctx, "sess")
	if totals.Subtotal != 200 || totals.VATAmount != 10 || totals.TotalAmount != 210 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	// 2 in cart + 2 requested exceeds stock of 3.
	ok, reason = s.AddItem(ctx, "sess", record("p1", 100, intPtr(3), 0), 2)
	if ok {
		t.Fatal("add over stock should be rejected")
	}
	if reason != ReasonStockLimit {
		t.Fatalf("reason = %q, want stock_limit", reason)
	}
	if got := s.QuantityOf(ctx, "sess", "p1"); got != 2 {
		t.Fatalf("quantity changed on rejected add: %d", got)
	}
	if rec.last().Kind != EventLimitRejected || rec.last().Reason != ReasonStockLimit {
		t.Fatalf("expected limit_rejected event, got %+v", rec.last())
	}
}

func TestAddItemRejectReasonPrecedence(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	// No stock limit, global cap binds with room left: max_limit.
	s.AddItem(ctx, "sess", record("p2", 50, nil, 0), 3)
	ok, reason := s.AddItem(ctx, "sess", record("p2", 50, nil, 0), 3)
	if ok || reason != ReasonMaxLimit {
		t.Fatalf("expected max_limit, got ok=%v reason=%q", ok, reason)
	}

	// At the cap exactly: maximum_reached.
	s.UpdateQuantity(ctx, "sess", "p2", GlobalMaxPerProduct)
	ok, reason = s.AddItem(ctx, "sess", record("p2", 50, nil, 0), 1)
	if ok || reason != ReasonMaximumReached {
		t.Fatalf("expected maximum_reached, got ok=%v reason=%q", ok, reason)
	}

	// Stock below the global cap always reports stock_limit, even at ceiling.
	s.AddItem(ctx, "sess", record("p3", 20, intPtr(2), 0), 2)
	ok, reason = s.AddItem(ctx, "sess", record("p3", 20, intPtr(2), 0), 1)
	if ok || reason != ReasonStockLimit {
		t.Fatalf("expected stock_limit, got ok=%v reason=%q", ok, reason)
	}
}

func TestAddNewItemOverCapRejected(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	ok, reason := s.AddItem(ctx, "sess", record("p1", 10, nil, 0), 6)
	if ok || reason != ReasonMaxLimit {
		t.Fatalf("expected rejection with max_limit, got ok=%v reason=%q", ok, reason)
	}
	if len(s.Items(ctx, "sess")) != 0 {
		t.Fatal("rejected add must not insert a line")
	}
}

func TestCapInvariantUnderMutationSequence(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	records := []catalog.Record{
		record("a", 10, nil, 0),
		record("b", 20, intPtr(2), 0),
		record("c", 30, intPtr(9), 25),
	}
	for i := 0; i < 12; i++ {
		s.AddItem(ctx, "sess", records[i%len(records)], 1+i%3)
		s.UpdateQuantity(ctx, "sess", records[(i+1)%len(records)].ID, i%7)
	}

	for _, item := range s.Items(ctx, "sess") {
		if item.Quantity < 1 || item.Quantity > item.MaxAllowed {
			t.Fatalf("cap invariant violated: %+v", item)
		}
		if item.MaxAllowed > GlobalMaxPerProduct {
			t.Fatalf("maxAllowed above global cap: %+v", item)
		}
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestStore()

	s.AddItem(ctx, "sess", record("p1", 100, intPtr(3), 0), 2)
	s.AddItem(ctx, "sess", record("p2", 50, nil, 40), 1)

	if !s.UpdateQuantity(ctx, "sess", "p1", 0) {
		t.Fatal("update to zero should succeed as removal")
	}
	items := s.Items(ctx, "sess")
	if len(items) != 1 || items[0].ID != "p2" {
		t.Fatalf("expected only p2 left, got %+v", items)
	}
	if rec.last().Kind != EventItemRemoved {
		t.Fatalf("expected item_removed event, got %+v", rec.last())
	}
}

func TestRemovalIsIdempotent(t *testing.T) {
	ctx := context.Background()

	s1, _, _ := newTestStore()
	s1.AddItem(ctx, "sess", record("p1", 100, nil, 0), 1)
	s1.UpdateQuantity(ctx, "sess", "p1", 0)
	s1.RemoveItem(ctx, "sess", "p1")

	s2, _, _ := newTestStore()
	s2.AddItem(ctx, "sess", record("p1", 100, nil, 0), 1)
	s2.RemoveItem(ctx, "sess", "p1")

	if len(s1.Items(ctx, "sess")) != 0 || len(s2.Items(ctx, "sess")) != 0 {
		t.Fatal("both sequences should end with an empty cart")
	}

	// Removing an absent id is a no-op.
	s2.RemoveItem(ctx, "sess", "ghost")
	if len(s2.Items(ctx, "sess")) != 0 {
		t.Fatal("removing missing id should not change state")
	}
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	s, p, rec := newTestStore()

	s.AddItem(ctx, "sess", record("p1", 100, nil, 0), 2)
	s.Clear(ctx, "sess")

	if len(s.Items(ctx, "sess")) != 0 {
		t.Fatal("clear should empty the cart")
	}
	totals := s.Totals(ctx, "sess")
	if totals.TotalAmount != 0 || totals.ItemCount != 0 {
		t.Fatalf("cleared cart should have zero totals: %+v", totals)
	}
	if p.deletes != 1 {
		t.Fatalf("expected one snapshot delete, got %d", p.deletes)
	}
	if rec.last().Kind != EventCartCleared {
		t.Fatalf("expected cart_cleared event, got %+v", rec.last())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newStubPersister()

	s1 := NewStore(p, nil, zap.NewNop().Sugar())
	s1.AddItem(ctx, "sess", record("p1", 100, intPtr(3), 0), 2)
	s1.AddItem(ctx, "sess", record("p2", 50, nil, 40), 1)

	// A fresh store hydrating from the same persister must see an equal cart.
	s2 := NewStore(p, nil, zap.NewNop().Sugar())
	items := s2.Items(ctx, "sess")
	if len(items) != 2 {
		t.Fatalf("expected 2 items after rehydration, got %d", len(items))
	}
	if items[0].ID != "p1" || items[0].Quantity != 2 || items[0].MaxAllowed != 3 {
		t.Fatalf("p1 did not round-trip: %+v", items[0])
	}
	if items[1].ID != "p2" || !items[1].HasPromotion || items[1].PromotionPrice == nil || *items[1].PromotionPrice != 40 {
		t.Fatalf("p2 did not round-trip: %+v", items[1])
	}
}

func TestCorruptSnapshotDegradesToEmptyCart(t *testing.T) {
	ctx := context.Background()
	p := newStubPersister()
	p.blobs["pawsCart:sess"] = []byte("{not json")

	s := NewStore(p, nil, zap.NewNop().Sugar())
	if got := s.Items(ctx, "sess"); len(got) != 0 {
		t.Fatalf("corrupt snapshot should hydrate empty, got %+v", got)
	}
}

func TestPersistenceFailureKeepsCartWorking(t *testing.T) {
	ctx := context.Background()
	p := newStubPersister()
	p.saveErr = errors.New("disk on fire")

	s := NewStore(p, nil, zap.NewNop().Sugar())
	ok, _ := s.AddItem(ctx, "sess", record("p1", 100, nil, 0), 1)
	if !ok {
		t.Fatal("mutation must succeed despite persistence failure")
	}
	if got := s.QuantityOf(ctx, "sess", "p1"); got != 1 {
		t.Fatalf("in-memory state lost: qty=%d", got)
	}
}

func TestDerivedQueries(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	s.AddItem(ctx, "sess", record("p1", 100, intPtr(3), 0), 3)

	if !s.IsInCart(ctx, "sess", "p1") || s.IsInCart(ctx, "sess", "p2") {
		t.Fatal("IsInCart mismatch")
	}
	if s.MaxAllowedFor(ctx, "sess", "p1") != 3 {
		t.Fatal("MaxAllowedFor should return the cached ceiling")
	}
	if s.MaxAllowedFor(ctx, "sess", "absent") != GlobalMaxPerProduct {
		t.Fatal("MaxAllowedFor should fall back to the global cap")
	}
	if s.CanAddMore(ctx, "sess", "p1") {
		t.Fatal("p1 is at its ceiling")
	}
	if !s.CanAddMore(ctx, "sess", "absent") {
		t.Fatal("absent items can always be added")
	}
	if s.ItemCount(ctx, "sess") != 3 {
		t.Fatalf("item count = %d", s.ItemCount(ctx, "sess"))
	}
}
