package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the order/payment backend. It decodes the canonical
// `{"data": ...}` envelope only; the backend's historical alternative id
// shapes are not tolerated here.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateOrder posts the order payload and returns the backend order id.
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (string, error) {
	var out struct {
		Data struct {
			ID string `json:"_id"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/orders", payload, &out); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("create order: response missing order id")
	}
	return out.Data.ID, nil
}

// CreatePaymentIntent binds a payment intent to an existing order.
func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string, customer CustomerInfo, billing BillingAddress) (PaymentIntent, error) {
	body := map[string]any{
		"orderId":        orderID,
		"customerInfo":   customer,
		"billingAddress": billing,
	}

	var out struct {
		Data PaymentIntent `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/payments/create-payment-intent", body, &out); err != nil {
		return PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	if out.Data.ClientSecret == "" {
		return PaymentIntent{}, fmt.Errorf("create payment intent: response missing client secret")
	}
	return out.Data, nil
}

// ConfirmPayment tells the backend a tokenized payment method should settle
// the intent. Failures come back as classifiable APIErrors.
func (c *Client) ConfirmPayment(ctx context.Context, paymentIntentID, paymentMethodID string) error {
	body := map[string]string{
		"paymentIntentId": paymentIntentID,
		"paymentMethodId": paymentMethodID,
	}
	if err := c.doJSON(ctx, http.MethodPost, "/payments/confirm-payment", body, nil); err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	return nil
}

// UpdateOrderStatus is used for the payment-failure rollback
// (status "cancelled") and is best-effort from the flow's point of view.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status, remarks string) error {
	body := map[string]string{
		"status":  status,
		"remarks": remarks,
	}
	if err := c.doJSON(ctx, http.MethodPut, "/orders/"+orderID+"/status", body, nil); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// PaymentStatus is the reconciliation fallback, not on the happy path.
func (c *Client) PaymentStatus(ctx context.Context, paymentIntentID string) (map[string]any, error) {
	var out struct {
		Data map[string]any `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/payments/status/"+paymentIntentID, nil, &out); err != nil {
		return nil, fmt.Errorf("payment status: %w", err)
	}
	return out.Data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No HTTP response at all: transient by definition.
		return &APIError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w body=%s", err, string(raw))
		}
	}
	return nil
}

// decodeAPIError lifts the backend error envelope into an APIError, keeping
// the processor code when one is present.
func decodeAPIError(status int, raw []byte) error {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	_ = json.Unmarshal(raw, &envelope)

	msg := envelope.Message
	if msg == "" {
		msg = envelope.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}

	return &APIError{StatusCode: status, Code: envelope.Code, Message: msg}
}
