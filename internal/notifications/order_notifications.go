package notifications

import (
	"context"
	"fmt"

	"paws/internal/pushtokens"

	"go.uber.org/zap"
)

// OrderNotifier reports checkout outcomes to the shopper's devices. It
// satisfies checkout.Notifier.
type OrderNotifier struct {
	push   PushSender
	tokens pushtokens.Store
	logger *zap.SugaredLogger
}

func NewOrderNotifier(push PushSender, tokens pushtokens.Store, logger *zap.SugaredLogger) *OrderNotifier {
	return &OrderNotifier{push: push, tokens: tokens, logger: logger}
}

func (n *OrderNotifier) OrderCompleted(_ context.Context, sessionID, orderID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		title := "Order confirmed"
		body := fmt.Sprintf("Your order (ID: %s) has been placed! 🎉", orderID)
		data := map[string]string{
			"type":    "order",
			"event":   "completed",
			"orderId": orderID,
			"screen":  "order-confirmation-screen",
		}
		if err := sendToSession(ctx, n.push, n.tokens, sessionID, title, body, data); err != nil {
			n.logger.Warnw("order confirmation push failed", "session", sessionID, "order", orderID, "error", err)
		}
	}()
}

func (n *OrderNotifier) PaymentFailed(_ context.Context, sessionID, orderID, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		data := map[string]string{
			"type":    "order",
			"event":   "payment_failed",
			"orderId": orderID,
			"screen":  "checkout-screen",
		}
		if err := sendToSession(ctx, n.push, n.tokens, sessionID, "Payment failed", message, data); err != nil {
			n.logger.Warnw("payment failure push failed", "session", sessionID, "order", orderID, "error", err)
		}
	}()
}
