package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateOrderDecodesEnvelope(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var payload OrderPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.OrderType != "normal" {
			t.Fatalf("orderType = %q", payload.OrderType)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"_id": "ord-42"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	id, err := c.CreateOrder(context.Background(), OrderPayload{OrderType: "normal"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if id != "ord-42" {
		t.Fatalf("order id = %q", id)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth header = %q", gotAuth)
	}
}

func TestCreateOrderMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{}})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "").CreateOrder(context.Background(), OrderPayload{}); err == nil {
		t.Fatal("expected error for missing order id")
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/create-payment-intent" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["orderId"] != "ord-42" {
			t.Fatalf("orderId = %v", body["orderId"])
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{
			"paymentIntentId": "pi_9",
			"clientSecret":    "pi_9_secret",
		}})
	}))
	defer srv.Close()

	intent, err := NewClient(srv.URL, "").CreatePaymentIntent(context.Background(), "ord-42", testCustomer(), testBilling())
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.PaymentIntentID != "pi_9" || intent.ClientSecret != "pi_9_secret" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Your card was declined",
			"code":    "card_declined",
		})
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").ConfirmPayment(context.Background(), "pi_9", "pm_1")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 402 || apiErr.Code != "card_declined" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if IsTransient(err) {
		t.Fatal("402 must not be transient")
	}
	if PaymentErrorMessage(err) != "Your card was declined. Please try a different payment method." {
		t.Fatalf("unexpected shopper message: %q", PaymentErrorMessage(err))
	}
}

func TestNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := NewClient(srv.URL, "").ConfirmPayment(context.Background(), "pi_9", "pm_1")
	if err == nil {
		t.Fatal("expected network error")
	}
	if !IsTransient(err) {
		t.Fatalf("connection failure must be transient: %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 0 {
		t.Fatalf("expected APIError with status 0, got %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").UpdateOrderStatus(context.Background(), "ord-1", "cancelled", "Payment failed")
	if err == nil || !IsTransient(err) {
		t.Fatalf("502 should be transient: %v", err)
	}
}

func TestPaymentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/status/pi_9" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"status": "succeeded"}})
	}))
	defer srv.Close()

	status, err := NewClient(srv.URL, "").PaymentStatus(context.Background(), "pi_9")
	if err != nil {
		t.Fatalf("payment status: %v", err)
	}
	if status["status"] != "succeeded" {
		t.Fatalf("unexpected status: %v", status)
	}
}
