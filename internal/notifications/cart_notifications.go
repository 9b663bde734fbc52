package notifications

import (
	"context"
	"fmt"
	"time"

	"paws/internal/cart"
	"paws/internal/pushtokens"

	"github.com/9ssi7/exponent"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// CartSink turns cart events into push notifications for the session's
// registered devices. It satisfies cart.EventSink and never blocks the cart:
// sends run in their own goroutine with their own timeout.
type CartSink struct {
	push   PushSender
	tokens pushtokens.Store
	logger *zap.SugaredLogger
}

func NewCartSink(push PushSender, tokens pushtokens.Store, logger *zap.SugaredLogger) *CartSink {
	return &CartSink{push: push, tokens: tokens, logger: logger}
}

func (s *CartSink) Notify(_ context.Context, e cart.Event) {
	title, body, ok := cartMessage(e)
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		data := map[string]string{
			"type":   "cart",
			"event":  string(e.Kind),
			"itemId": e.ItemID,
			"screen": "cart-screen",
		}
		if e.Reason != "" {
			data["reason"] = string(e.Reason)
		}
		if err := sendToSession(ctx, s.push, s.tokens, e.SessionID, title, body, data); err != nil {
			s.logger.Warnw("cart push failed", "session", e.SessionID, "event", e.Kind, "error", err)
		}
	}()
}

// cartMessage maps an event to notification text. Routine mutations
// (add, remove, clear) stay silent; only rejections are worth a push.
func cartMessage(e cart.Event) (title, body string, ok bool) {
	if e.Kind != cart.EventLimitRejected {
		return "", "", false
	}
	switch e.Reason {
	case cart.ReasonStockLimit:
		return "Limited stock", fmt.Sprintf("Only a few units of %s are available right now.", e.ItemName), true
	case cart.ReasonMaximumReached:
		return "Quantity limit reached", fmt.Sprintf("You already have the maximum of %s in your cart.", e.ItemName), true
	case cart.ReasonMaxLimit:
		return "Quantity limit", fmt.Sprintf("You can order up to %d units of %s.", cart.GlobalMaxPerProduct, e.ItemName), true
	default:
		return "", "", false
	}
}

// sendToSession fans one message out to every token the session registered.
func sendToSession(ctx context.Context, push PushSender, tokens pushtokens.Store, sessionID, title, body string, data map[string]string) error {
	list, err := tokens.TokensForSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}

	msgs := make([]*exponent.Message, 0, len(list))
	for _, t := range list {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data:  data,
		})
	}

	_, err = push.Publish(ctx, msgs)
	return err
}
