package cart

import "context"

// GlobalMaxPerProduct caps how many units of a single product a shopper can
// hold in the cart, independent of stock.
const GlobalMaxPerProduct = 5

// LineItem is one cart entry, uniquely keyed by catalog id. Promotion state
// and the quantity ceiling are resolved when the item is added and cached on
// the line; the cart never re-evaluates the catalog.
type LineItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	BasePrice      float64  `json:"basePrice"`
	PromotionPrice *float64 `json:"promotionPrice,omitempty"`
	HasPromotion   bool     `json:"hasPromotion"`
	Quantity       int      `json:"quantity"`
	StockQuantity  *int     `json:"stockQuantity,omitempty"`
	MaxAllowed     int      `json:"maxAllowed"`
	ProductCode    string   `json:"productCode,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	Category       string   `json:"category,omitempty"`
	SubCategory    string   `json:"subCategory,omitempty"`
}

// State is the full cart content for one session. It is what gets serialized
// to the snapshot store; round-tripping it must reproduce an equal item list.
type State struct {
	Items []LineItem `json:"items"`
}

// RejectReason explains why a quantity change was refused.
type RejectReason string

const (
	// ReasonMaximumReached: the line already sits at its ceiling.
	ReasonMaximumReached RejectReason = "maximum_reached"
	// ReasonMaxLimit: the request would exceed the global per-product cap.
	ReasonMaxLimit RejectReason = "max_limit"
	// ReasonStockLimit: the request would exceed available stock.
	ReasonStockLimit RejectReason = "stock_limit"
)

// EventKind identifies a cart mutation outcome the UI layer may surface.
type EventKind string

const (
	EventItemAdded     EventKind = "item_added"
	EventLimitRejected EventKind = "limit_rejected"
	EventItemRemoved   EventKind = "item_removed"
	EventCartCleared   EventKind = "cart_cleared"
)

// Event is emitted after every observable mutation outcome. The store never
// renders user-facing text itself; sinks translate events into notifications.
type Event struct {
	Kind      EventKind
	SessionID string
	ItemID    string
	ItemName  string
	Quantity  int
	Reason    RejectReason
}

// EventSink receives cart events. Implementations must not block mutations.
type EventSink interface {
	Notify(ctx context.Context, e Event)
}

// Persister stores cart snapshots by storage key. A nil result with a nil
// error means no snapshot exists for that key.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}
