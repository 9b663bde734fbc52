package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFlowInFlight guards against duplicate submission: a second Start,
	// Confirm or cash order while one is still running is refused.
	ErrFlowInFlight = errors.New("checkout already in progress")

	// ErrEmptyCart means there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

	// ErrNoPaymentIntent means Confirm was called before the payment step
	// produced an intent.
	ErrNoPaymentIntent = errors.New("no payment intent available for confirmation")
)

// APIError is a failed call to the order/payment backend. StatusCode 0 means
// the request never got an HTTP response (network failure).
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api error (http %d): %s", e.StatusCode, e.Message)
}

// IsTransient reports whether an error is worth an automatic retry: network
// failures and backend 5xx. Card and confirmation errors are never transient.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 0 || apiErr.StatusCode >= 500
	}
	return false
}

// FailureKind classifies a confirmation-stage failure.
type FailureKind string

const (
	FailureAlreadyConfirmed  FailureKind = "already_confirmed"
	FailurePaymentFailed     FailureKind = "payment_failed"
	FailureInsufficientFunds FailureKind = "insufficient_funds"
	FailureGeneric           FailureKind = "generic"
)

// ClassifyConfirmError buckets a confirm-payment error by message content.
// already_confirmed is not a real failure; the backend settled the payment on
// an earlier attempt.
func ClassifyConfirmError(err error) FailureKind {
	if err == nil {
		return FailureGeneric
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already_confirmed"):
		return FailureAlreadyConfirmed
	case strings.Contains(msg, "insufficient_funds"):
		return FailureInsufficientFunds
	case strings.Contains(msg, "payment_failed"):
		return FailurePaymentFailed
	default:
		return FailureGeneric
	}
}

// paymentErrorMessages maps processor error codes to shopper-facing text.
var paymentErrorMessages = map[string]string{
	"card_declined":         "Your card was declined. Please try a different payment method.",
	"insufficient_funds":    "Insufficient funds. Please try a different card or add funds.",
	"expired_card":          "Your card has expired. Please try a different card.",
	"incorrect_cvc":         "The security code (CVC) is incorrect. Please check and try again.",
	"processing_error":      "An error occurred while processing your payment. Please try again.",
	"invalid_request_error": "Payment information is invalid. Please check your details.",
	"api_connection_error":  "Connection error. Please check your internet and try again.",
	"api_error":             "Payment service temporarily unavailable. Please try again later.",
	"authentication_error":  "Payment authentication failed. Please try again.",
	"rate_limit_error":      "Too many requests. Please wait a moment and try again.",
	"validation_error":      "Please check your payment information and try again.",
}

// PaymentErrorMessage resolves an error to shopper-facing text, keyed by the
// processor error code when one is present.
func PaymentErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg, ok := paymentErrorMessages[apiErr.Code]; ok {
			return msg
		}
	}
	return "An unexpected error occurred. Please try again or contact support."
}
