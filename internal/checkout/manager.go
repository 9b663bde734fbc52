package checkout

import (
	"context"
	"sync"

	"paws/internal/cart"

	"go.uber.org/zap"
)

// Manager hands out one Flow per session. Flows are in-memory only and live
// until the order confirms or the session resets them.
type Manager struct {
	mu     sync.Mutex
	flows  map[string]*Flow
	api    API
	carts  CartClearer
	notify Notifier
	logger *zap.SugaredLogger
}

func NewManager(api API, carts CartClearer, notify Notifier, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		flows:  map[string]*Flow{},
		api:    api,
		carts:  carts,
		notify: notify,
		logger: logger,
	}
}

func (m *Manager) flowFor(sessionID string) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[sessionID]
	if !ok {
		f = NewFlow(m.api, m.carts, m.notify, m.logger, sessionID)
		m.flows[sessionID] = f
	}
	return f
}

// Start begins a card checkout for the session's cart lines.
func (m *Manager) Start(ctx context.Context, sessionID string, items []cart.LineItem, customer CustomerInfo, billing BillingAddress) (FlowState, error) {
	return m.flowFor(sessionID).Start(ctx, items, customer, billing)
}

// Confirm settles the session's payment intent with a tokenized method.
func (m *Manager) Confirm(ctx context.Context, sessionID, paymentMethodID string) (FlowState, error) {
	return m.flowFor(sessionID).ConfirmSuccess(ctx, paymentMethodID)
}

// ReportFailure records a client-side tokenization failure and returns the
// shopper-facing message.
func (m *Manager) ReportFailure(ctx context.Context, sessionID string, cause error) (FlowState, string) {
	f := m.flowFor(sessionID)
	msg := f.HandleFailure(ctx, cause)
	return f.State(), msg
}

// CashOnDelivery places the session's order without a payment step.
func (m *Manager) CashOnDelivery(ctx context.Context, sessionID string, items []cart.LineItem, customer CustomerInfo, billing BillingAddress) (string, error) {
	return m.flowFor(sessionID).PlaceCashOrder(ctx, items, customer, billing)
}

// OrderDetails returns what the session's running attempt captured at start.
func (m *Manager) OrderDetails(sessionID string) ([]cart.LineItem, CustomerInfo, BillingAddress) {
	return m.flowFor(sessionID).OrderDetails()
}

// Status polls the payment processor state for the session's intent.
func (m *Manager) Status(ctx context.Context, sessionID string) (map[string]any, error) {
	return m.flowFor(sessionID).CheckStatus(ctx)
}

// State reports the session's flow position without side effects.
func (m *Manager) State(sessionID string) FlowState {
	return m.flowFor(sessionID).State()
}

// Reset abandons the session's attempt, discarding order and intent ids.
func (m *Manager) Reset(sessionID string) {
	m.flowFor(sessionID).Reset()
}
