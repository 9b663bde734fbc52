package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paws/internal/cart"

	"go.uber.org/zap"
)

// Automatic retry applies only to transient failures of the initial order
// and payment-intent calls. Confirmation and card errors need new user input
// and are never retried here.
const (
	retryBudget = 2
	retryDelay  = 500 * time.Millisecond
)

// API is the slice of the backend the flow drives. *Client satisfies it;
// tests substitute stubs.
type API interface {
	CreateOrder(ctx context.Context, payload OrderPayload) (string, error)
	CreatePaymentIntent(ctx context.Context, orderID string, customer CustomerInfo, billing BillingAddress) (PaymentIntent, error)
	ConfirmPayment(ctx context.Context, paymentIntentID, paymentMethodID string) error
	UpdateOrderStatus(ctx context.Context, orderID, status, remarks string) error
	PaymentStatus(ctx context.Context, paymentIntentID string) (map[string]any, error)
}

// CartClearer empties a session's cart after a completed order.
// *cart.Store satisfies it.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string)
}

// Notifier receives terminal checkout outcomes. May be nil.
type Notifier interface {
	OrderCompleted(ctx context.Context, sessionID, orderID string)
	PaymentFailed(ctx context.Context, sessionID, orderID, message string)
}

// Flow runs one checkout attempt for one session: order creation, payment
// intent, then confirmation fed back from the processor's client-side
// tokenization. It only moves forward; a failure keeps it on the step it
// failed on so the caller can retry that step.
type Flow struct {
	mu     sync.Mutex
	api    API
	carts  CartClearer
	notify Notifier
	logger *zap.SugaredLogger

	sessionID string
	items     []cart.LineItem
	customer  CustomerInfo
	billing   BillingAddress

	state        FlowState
	inFlight     bool
	cancelIssued bool

	retryDelay time.Duration
}

func NewFlow(api API, carts CartClearer, notify Notifier, logger *zap.SugaredLogger, sessionID string) *Flow {
	return &Flow{
		api:        api,
		carts:      carts,
		notify:     notify,
		logger:     logger,
		sessionID:  sessionID,
		state:      FlowState{Step: StepOrder},
		retryDelay: retryDelay,
	}
}

// begin takes the in-flight lock for one external operation sequence.
func (f *Flow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrFlowInFlight
	}
	f.inFlight = true
	f.state.Loading = true
	f.state.Error = ""
	return nil
}

func (f *Flow) finish(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	f.state.Loading = false
	if err != nil && f.state.Error == "" {
		f.state.Error = err.Error()
	}
}

// State returns a copy of the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Start runs the order and payment-intent steps. The cart lines are copied:
// later cart edits do not change the order being placed. On success the flow
// is ready for client-side card tokenization against ClientSecret.
func (f *Flow) Start(ctx context.Context, items []cart.LineItem, customer CustomerInfo, billing BillingAddress) (FlowState, error) {
	if len(items) == 0 {
		return f.State(), ErrEmptyCart
	}
	if err := f.begin(); err != nil {
		return f.State(), err
	}

	f.mu.Lock()
	f.items = append([]cart.LineItem(nil), items...)
	f.customer = customer
	f.billing = billing
	f.state = FlowState{Step: StepOrder, Loading: true}
	f.cancelIssued = false
	f.mu.Unlock()

	payload := BuildOrderPayload(items, customer, billing, PaymentMethodCard)

	var orderID string
	err := f.withRetry(ctx, "create order", func() error {
		var opErr error
		orderID, opErr = f.api.CreateOrder(ctx, payload)
		return opErr
	})
	if err != nil {
		f.logger.Errorw("order creation failed", "session", f.sessionID, "error", err)
		f.finish(err)
		return f.State(), err
	}

	f.mu.Lock()
	f.state.OrderID = orderID
	f.state.Step = StepPayment
	f.mu.Unlock()

	var intent PaymentIntent
	err = f.withRetry(ctx, "create payment intent", func() error {
		var opErr error
		intent, opErr = f.api.CreatePaymentIntent(ctx, orderID, customer, billing)
		return opErr
	})
	if err != nil {
		// The order stays in place: an intent failure with no tokenization
		// attempt yet is retryable, not a confirmed payment failure.
		f.logger.Errorw("payment intent creation failed", "session", f.sessionID, "order", orderID, "error", err)
		f.finish(err)
		return f.State(), err
	}

	f.mu.Lock()
	f.state.PaymentIntentID = intent.PaymentIntentID
	f.state.ClientSecret = intent.ClientSecret
	f.mu.Unlock()

	f.finish(nil)
	f.logger.Infow("checkout ready for card tokenization", "session", f.sessionID, "order", orderID, "intent", intent.PaymentIntentID)
	return f.State(), nil
}

// ConfirmSuccess settles the intent with the tokenized payment method. On
// backend confirmation the cart is cleared and the flow reaches its terminal
// step. Classified confirmation failures trigger the rollback path.
func (f *Flow) ConfirmSuccess(ctx context.Context, paymentMethodID string) (FlowState, error) {
	f.mu.Lock()
	intentID := f.state.PaymentIntentID
	f.mu.Unlock()
	if intentID == "" {
		return f.State(), ErrNoPaymentIntent
	}
	if err := f.begin(); err != nil {
		return f.State(), err
	}

	err := f.api.ConfirmPayment(ctx, intentID, paymentMethodID)
	if err != nil && ClassifyConfirmError(err) == FailureAlreadyConfirmed {
		f.logger.Infow("payment was already confirmed", "session", f.sessionID, "intent", intentID)
		err = nil
	}
	if err != nil {
		f.logger.Errorw("payment confirmation failed", "session", f.sessionID, "intent", intentID, "error", err)
		f.failLocked(ctx, err)
		f.finish(err)
		return f.State(), err
	}

	f.mu.Lock()
	f.state.Step = StepConfirmation
	orderID := f.state.OrderID
	f.mu.Unlock()

	f.carts.Clear(ctx, f.sessionID)
	if f.notify != nil {
		f.notify.OrderCompleted(ctx, f.sessionID, orderID)
	}

	f.finish(nil)
	f.logger.Infow("order confirmed", "session", f.sessionID, "order", orderID)
	return f.State(), nil
}

// HandleFailure is the single failure routine: it serves card tokenization
// errors reported by the UI as well as confirmation failures, so rollback is
// applied uniformly. It returns the shopper-facing message.
func (f *Flow) HandleFailure(ctx context.Context, cause error) string {
	message := failureMessage(cause)

	f.mu.Lock()
	f.state.Error = message
	f.state.Loading = false
	f.mu.Unlock()

	f.rollback(ctx, cause)

	f.mu.Lock()
	orderID := f.state.OrderID
	f.mu.Unlock()
	if f.notify != nil {
		f.notify.PaymentFailed(ctx, f.sessionID, orderID, message)
	}
	return message
}

// failLocked is the confirmation-failure path inside ConfirmSuccess.
func (f *Flow) failLocked(ctx context.Context, cause error) {
	message := failureMessage(cause)
	f.mu.Lock()
	f.state.Error = message
	orderID := f.state.OrderID
	f.mu.Unlock()

	f.rollback(ctx, cause)
	if f.notify != nil {
		f.notify.PaymentFailed(ctx, f.sessionID, orderID, message)
	}
}

// rollback cancels the created order exactly once, best-effort: a failure
// here is logged but never masks the payment error the shopper needs to see.
// The order id stays on the flow for manual retry or support lookup.
func (f *Flow) rollback(ctx context.Context, cause error) {
	f.mu.Lock()
	orderID := f.state.OrderID
	issued := f.cancelIssued
	if orderID != "" && !issued {
		f.cancelIssued = true
	}
	f.mu.Unlock()

	if orderID == "" || issued {
		return
	}

	remarks := "Payment failed"
	if cause != nil {
		remarks = fmt.Sprintf("Payment failed: %s", cause.Error())
	}
	if err := f.api.UpdateOrderStatus(ctx, orderID, "cancelled", remarks); err != nil {
		f.logger.Errorw("order cancellation failed after payment failure", "order", orderID, "error", err)
	}
}

// PlaceCashOrder is the cash-on-delivery branch: one order call, no payment
// intent, cart cleared on success. Shares the duplicate-submission guard.
func (f *Flow) PlaceCashOrder(ctx context.Context, items []cart.LineItem, customer CustomerInfo, billing BillingAddress) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyCart
	}
	if err := f.begin(); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.items = append([]cart.LineItem(nil), items...)
	f.customer = customer
	f.billing = billing
	f.mu.Unlock()

	payload := BuildOrderPayload(items, customer, billing, PaymentMethodCashOnDelivery)

	var orderID string
	err := f.withRetry(ctx, "create cash order", func() error {
		var opErr error
		orderID, opErr = f.api.CreateOrder(ctx, payload)
		return opErr
	})
	if err != nil {
		f.logger.Errorw("cash on delivery order failed", "session", f.sessionID, "error", err)
		f.finish(err)
		return "", err
	}

	f.mu.Lock()
	f.state.OrderID = orderID
	f.state.Step = StepConfirmation
	f.mu.Unlock()

	f.carts.Clear(ctx, f.sessionID)
	if f.notify != nil {
		f.notify.OrderCompleted(ctx, f.sessionID, orderID)
	}

	f.finish(nil)
	f.logger.Infow("cash on delivery order placed", "session", f.sessionID, "order", orderID)
	return orderID, nil
}

// OrderDetails returns the lines and contact details captured when the
// attempt started. The confirmation email is built from these.
func (f *Flow) OrderDetails() ([]cart.LineItem, CustomerInfo, BillingAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]cart.LineItem(nil), f.items...)
	return items, f.customer, f.billing
}

// CheckStatus polls the reconciliation endpoint for the current intent.
func (f *Flow) CheckStatus(ctx context.Context) (map[string]any, error) {
	f.mu.Lock()
	intentID := f.state.PaymentIntentID
	f.mu.Unlock()
	if intentID == "" {
		return nil, ErrNoPaymentIntent
	}
	return f.api.PaymentStatus(ctx, intentID)
}

// Reset discards the attempt so a new flow can start from scratch.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FlowState{Step: StepOrder}
	f.items = nil
	f.inFlight = false
	f.cancelIssued = false
}

func (f *Flow) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= retryBudget; attempt++ {
		if attempt > 0 {
			f.logger.Infow("retrying after transient error", "op", op, "attempt", attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.retryDelay):
			}
		}
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}

// failureMessage picks the shopper-facing text for a failure, preferring the
// classified confirmation bucket, then the processor code catalogue.
func failureMessage(cause error) string {
	switch ClassifyConfirmError(cause) {
	case FailureInsufficientFunds:
		return "Insufficient funds. Please try a different payment method."
	case FailurePaymentFailed:
		return "Payment confirmation failed. Please try again or contact support."
	default:
		return PaymentErrorMessage(cause)
	}
}
