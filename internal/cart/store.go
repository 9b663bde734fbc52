package cart

import (
	"context"
	"encoding/json"
	"sync"

	"paws/internal/catalog"
	"paws/internal/pricing"

	"go.uber.org/zap"
)

// storageKeyPrefix is the well-known key family cart snapshots live under.
const storageKeyPrefix = "pawsCart:"

// Store owns all cart state. It is the single writer: every mutation loads
// the session's state, applies one transition and writes the snapshot back
// before returning, all under one lock, so mutations never observe a torn
// intermediate state.
//
// Persistence failures are logged and swallowed; the cart keeps working from
// memory only. That degraded mode is deliberate: losing a snapshot must never
// break add-to-cart.
type Store struct {
	mu        sync.Mutex
	carts     map[string]*State
	persister Persister
	events    EventSink
	logger    *zap.SugaredLogger
}

// NewStore builds the cart store. persister may be nil for a memory-only
// cart (tests, or when the snapshot table is unavailable at boot); events may
// be nil to drop events.
func NewStore(persister Persister, events EventSink, logger *zap.SugaredLogger) *Store {
	return &Store{
		carts:     make(map[string]*State),
		persister: persister,
		events:    events,
		logger:    logger,
	}
}

func storageKey(sessionID string) string {
	return storageKeyPrefix + sessionID
}

// state returns the in-memory state for a session, hydrating it from the
// snapshot store on first touch. Corrupt or unreadable snapshots degrade to
// an empty cart. Caller must hold s.mu.
func (s *Store) state(ctx context.Context, sessionID string) *State {
	if st, ok := s.carts[sessionID]; ok {
		return st
	}

	st := &State{}
	if s.persister != nil {
		payload, err := s.persister.Load(ctx, storageKey(sessionID))
		switch {
		case err != nil:
			s.logger.Warnw("cart snapshot load failed, starting empty", "session", sessionID, "error", err)
		case payload != nil:
			if err := json.Unmarshal(payload, st); err != nil {
				s.logger.Warnw("cart snapshot corrupt, starting empty", "session", sessionID, "error", err)
				st = &State{}
			}
		}
	}

	s.carts[sessionID] = st
	return st
}

// persist writes the session snapshot through. Caller must hold s.mu.
func (s *Store) persist(ctx context.Context, sessionID string, st *State) {
	if s.persister == nil {
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		s.logger.Errorw("cart snapshot marshal failed", "session", sessionID, "error", err)
		return
	}
	if err := s.persister.Save(ctx, storageKey(sessionID), payload); err != nil {
		s.logger.Warnw("cart snapshot save failed, continuing in memory", "session", sessionID, "error", err)
	}
}

func (s *Store) emit(ctx context.Context, e Event) {
	if s.events != nil {
		s.events.Notify(ctx, e)
	}
}

// maxAllowedFor computes the quantity ceiling cached on a new line item.
func maxAllowedFor(stock *int) int {
	if stock != nil && *stock < GlobalMaxPerProduct {
		return *stock
	}
	return GlobalMaxPerProduct
}

// classifyRejection picks the reason surfaced to the shopper when a quantity
// change is refused. Stock wins whenever the item is stock-limited below the
// global cap; a line already sitting at its ceiling reports maximum_reached;
// otherwise the global cap was the binding constraint.
func classifyRejection(current int, item LineItem) RejectReason {
	if item.StockQuantity != nil && *item.StockQuantity < GlobalMaxPerProduct {
		return ReasonStockLimit
	}
	if current >= item.MaxAllowed {
		return ReasonMaximumReached
	}
	return ReasonMaxLimit
}

// AddItem puts quantity units of a catalog record into the session's cart,
// resolving promotion price and the quantity ceiling at call time. It returns
// false with a reason when the cap would be exceeded; state is unchanged in
// that case.
func (s *Store) AddItem(ctx context.Context, sessionID string, rec catalog.Record, quantity int) (bool, RejectReason) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, sessionID)

	for i := range st.Items {
		if st.Items[i].ID != rec.ID {
			continue
		}
		item := &st.Items[i]
		if item.Quantity+quantity > item.MaxAllowed {
			reason := classifyRejection(item.Quantity, *item)
			s.emit(ctx, Event{Kind: EventLimitRejected, SessionID: sessionID, ItemID: item.ID, ItemName: item.Name, Quantity: item.Quantity, Reason: reason})
			return false, reason
		}
		item.Quantity += quantity
		s.persist(ctx, sessionID, st)
		s.emit(ctx, Event{Kind: EventItemAdded, SessionID: sessionID, ItemID: item.ID, ItemName: item.Name, Quantity: item.Quantity})
		return true, ""
	}

	newItem := LineItem{
		ID:           rec.ID,
		Name:         rec.Name,
		BasePrice:    rec.Price,
		HasPromotion: rec.HasPromotion(),
		Quantity:     quantity,
		MaxAllowed:   maxAllowedFor(rec.StockQuantity),
		ProductCode:  rec.ProductCode,
		Unit:         rec.Unit,
		Category:     rec.Category,
		SubCategory:  rec.SubCategory,
	}
	if rec.StockQuantity != nil {
		stock := *rec.StockQuantity
		newItem.StockQuantity = &stock
	}
	if rec.HasPromotion() {
		promo := rec.PromotionPrice()
		newItem.PromotionPrice = &promo
	}

	if quantity > newItem.MaxAllowed {
		reason := classifyRejection(0, newItem)
		s.emit(ctx, Event{Kind: EventLimitRejected, SessionID: sessionID, ItemID: rec.ID, ItemName: newItem.Name, Reason: reason})
		return false, reason
	}

	st.Items = append(st.Items, newItem)
	s.persist(ctx, sessionID, st)
	s.emit(ctx, Event{Kind: EventItemAdded, SessionID: sessionID, ItemID: rec.ID, ItemName: newItem.Name, Quantity: quantity})
	return true, ""
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
// Requests above the cached ceiling are refused and leave state unchanged.
func (s *Store) UpdateQuantity(ctx context.Context, sessionID, id string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, sessionID)

	for i := range st.Items {
		if st.Items[i].ID != id {
			continue
		}

		if quantity <= 0 {
			s.removeAtLocked(ctx, sessionID, st, i)
			return true
		}

		item := &st.Items[i]
		if quantity > item.MaxAllowed {
			reason := classifyRejection(item.Quantity, *item)
			s.emit(ctx, Event{Kind: EventLimitRejected, SessionID: sessionID, ItemID: id, ItemName: item.Name, Quantity: item.Quantity, Reason: reason})
			return false
		}

		item.Quantity = quantity
		s.persist(ctx, sessionID, st)
		return true
	}

	return false
}

// RemoveItem drops a line unconditionally. Removing an absent id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, sessionID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, sessionID)
	for i := range st.Items {
		if st.Items[i].ID == id {
			s.removeAtLocked(ctx, sessionID, st, i)
			return
		}
	}
}

func (s *Store) removeAtLocked(ctx context.Context, sessionID string, st *State, i int) {
	removed := st.Items[i]
	st.Items = append(st.Items[:i], st.Items[i+1:]...)
	s.persist(ctx, sessionID, st)
	s.emit(ctx, Event{Kind: EventItemRemoved, SessionID: sessionID, ItemID: removed.ID, ItemName: removed.Name})
}

// Clear empties the session's cart and deletes its snapshot.
func (s *Store) Clear(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, sessionID)
	st.Items = nil

	if s.persister != nil {
		if err := s.persister.Delete(ctx, storageKey(sessionID)); err != nil {
			s.logger.Warnw("cart snapshot delete failed", "session", sessionID, "error", err)
		}
	}

	s.emit(ctx, Event{Kind: EventCartCleared, SessionID: sessionID})
}

// Items returns a copy of the session's line items.
func (s *Store) Items(ctx context.Context, sessionID string) []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(ctx, sessionID)
	out := make([]LineItem, len(st.Items))
	copy(out, st.Items)
	return out
}

// ItemCount is the total number of units across all lines.
func (s *Store) ItemCount(ctx context.Context, sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.state(ctx, sessionID).Items {
		count += item.Quantity
	}
	return count
}

// Totals recomputes derived amounts from current state via the pricing engine.
func (s *Store) Totals(ctx context.Context, sessionID string) pricing.Totals {
	return pricing.Calculate(PricingLines(s.Items(ctx, sessionID)), pricing.VATRate)
}

// IsInCart reports whether the product is already a cart line.
func (s *Store) IsInCart(ctx context.Context, sessionID, id string) bool {
	return s.QuantityOf(ctx, sessionID, id) > 0
}

// QuantityOf returns the line quantity, or 0 when absent.
func (s *Store) QuantityOf(ctx context.Context, sessionID, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.state(ctx, sessionID).Items {
		if item.ID == id {
			return item.Quantity
		}
	}
	return 0
}

// MaxAllowedFor returns the cached ceiling for a line, falling back to the
// global cap when the item is not in the cart.
func (s *Store) MaxAllowedFor(ctx context.Context, sessionID, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.state(ctx, sessionID).Items {
		if item.ID == id {
			return item.MaxAllowed
		}
	}
	return GlobalMaxPerProduct
}

// CanAddMore reports whether one more unit would be accepted.
func (s *Store) CanAddMore(ctx context.Context, sessionID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.state(ctx, sessionID).Items {
		if item.ID == id {
			return item.Quantity < item.MaxAllowed
		}
	}
	return true
}

// PricingLines converts cart lines to pricing engine input.
func PricingLines(items []LineItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		l := pricing.Line{
			UnitPrice:    item.BasePrice,
			HasPromotion: item.HasPromotion,
			Quantity:     item.Quantity,
		}
		if item.PromotionPrice != nil {
			l.PromotionPrice = *item.PromotionPrice
		}
		lines = append(lines, l)
	}
	return lines
}
