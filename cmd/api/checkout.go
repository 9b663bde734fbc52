package main

import (
	"errors"
	"fmt"
	"net/http"

	"paws/internal/cart"
	"paws/internal/checkout"
	"paws/internal/mailer"
	"paws/internal/pricing"
)

// CheckoutRequest carries the contact and billing details for an order.
type CheckoutRequest struct {
	CustomerInfo   checkout.CustomerInfo   `json:"customerInfo"`
	BillingAddress checkout.BillingAddress `json:"billingAddress"`
}

// ConfirmPaymentRequest carries the tokenized payment method from the client.
type ConfirmPaymentRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

// PaymentFailureRequest reports a client-side tokenization failure.
type PaymentFailureRequest struct {
	Code    string `json:"code"`
	Message string `json:"message" validate:"required"`
}

// BuyNowRequest orders a single item directly, skipping the cart.
type BuyNowRequest struct {
	ItemID         string                  `json:"itemId" validate:"required"`
	ItemType       string                  `json:"itemType" validate:"omitempty,oneof=product service"`
	Quantity       int                     `json:"quantity"`
	PaymentMethod  string                  `json:"paymentMethod" validate:"omitempty,oneof=stripe cash_on_delivery"`
	CustomerInfo   checkout.CustomerInfo   `json:"customerInfo"`
	BillingAddress checkout.BillingAddress `json:"billingAddress"`
}

// validationFailedResponse renders per-field problems for the checkout form.
func (app *application) validationFailedResponse(w http.ResponseWriter, r *http.Request, problems map[string]string) {
	app.logger.Warnw("checkout validation failed", "path", r.URL.Path, "problems", problems)

	writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"errors":  problems,
	})
}

// checkoutErrorResponse maps flow errors onto HTTP statuses.
func (app *application) checkoutErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrNoPaymentIntent):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, checkout.ErrFlowInFlight):
		app.conflictResponse(w, r, err)
	default:
		app.logger.Errorw("checkout upstream failure", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadGateway, checkout.PaymentErrorMessage(err))
	}
}

// CheckoutState godoc
//
//	@Summary		Get the checkout flow state
//	@Description	Returns the current step, order id and payment intent for the session
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	checkout.FlowState
//	@Security		ApiKeyAuth
//	@Router			/checkout [get]
func (app *application) checkoutStateHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.jsonResponse(w, http.StatusOK, app.checkout.State(getSessionFromContext(r))); err != nil {
		app.internalServerError(w, r, err)
	}
}

// StartCheckout godoc
//
//	@Summary		Start a card checkout
//	@Description	Creates the backend order from the cart, then a payment intent; the response carries the client secret for card tokenization
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CheckoutRequest	true	"Contact and billing details"
//	@Success		200		{object}	checkout.FlowState
//	@Failure		400		{object}	error	"Validation failed or empty cart"
//	@Failure		409		{object}	error	"A checkout is already in progress"
//	@Security		ApiKeyAuth
//	@Router			/checkout [post]
func (app *application) startCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload CheckoutRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if problems := checkout.ValidateCheckoutInput(payload.CustomerInfo, payload.BillingAddress); len(problems) > 0 {
		app.validationFailedResponse(w, r, problems)
		return
	}

	items := app.carts.Items(r.Context(), sessionID)
	state, err := app.checkout.Start(r.Context(), sessionID, items, payload.CustomerInfo, payload.BillingAddress)
	if err != nil {
		app.checkoutErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, state); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ConfirmPayment godoc
//
//	@Summary		Confirm the payment
//	@Description	Settles the payment intent with the tokenized method; on success the order is final and the cart is cleared
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ConfirmPaymentRequest	true	"Tokenized payment method"
//	@Success		200		{object}	checkout.FlowState
//	@Failure		402		{object}	error	"Payment failed"
//	@Security		ApiKeyAuth
//	@Router			/checkout/confirm [post]
func (app *application) confirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload ConfirmPaymentRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	state, err := app.checkout.Confirm(r.Context(), sessionID, payload.PaymentMethodID)
	if err != nil {
		if errors.Is(err, checkout.ErrNoPaymentIntent) || errors.Is(err, checkout.ErrFlowInFlight) {
			app.checkoutErrorResponse(w, r, err)
			return
		}
		writeJSONError(w, http.StatusPaymentRequired, state.Error)
		return
	}

	app.sendOrderConfirmationEmail(sessionID, state.OrderID, checkout.PaymentMethodCard)

	if err := app.jsonResponse(w, http.StatusOK, state); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ReportPaymentFailure godoc
//
//	@Summary		Report a client-side payment failure
//	@Description	Records a card tokenization failure, cancels the pending order and returns the shopper-facing message
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PaymentFailureRequest	true	"Failure details"
//	@Success		200		{object}	checkout.FlowState
//	@Security		ApiKeyAuth
//	@Router			/checkout/failure [post]
func (app *application) paymentFailureHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload PaymentFailureRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	cause := &checkout.APIError{Code: payload.Code, Message: payload.Message}
	state, message := app.checkout.ReportFailure(r.Context(), sessionID, cause)

	resp := struct {
		checkout.FlowState
		Message string `json:"message"`
	}{FlowState: state, Message: message}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CashOnDelivery godoc
//
//	@Summary		Place a cash-on-delivery order
//	@Description	Creates the order without a payment step; payment is collected at delivery
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CheckoutRequest	true	"Contact and billing details"
//	@Success		201		{object}	map[string]string
//	@Failure		400		{object}	error	"Validation failed or empty cart"
//	@Security		ApiKeyAuth
//	@Router			/checkout/cash-on-delivery [post]
func (app *application) cashOnDeliveryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload CheckoutRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if problems := checkout.ValidateCheckoutInput(payload.CustomerInfo, payload.BillingAddress); len(problems) > 0 {
		app.validationFailedResponse(w, r, problems)
		return
	}

	items := app.carts.Items(r.Context(), sessionID)
	orderID, err := app.checkout.CashOnDelivery(r.Context(), sessionID, items, payload.CustomerInfo, payload.BillingAddress)
	if err != nil {
		app.checkoutErrorResponse(w, r, err)
		return
	}

	app.sendOrderConfirmationEmail(sessionID, orderID, checkout.PaymentMethodCashOnDelivery)

	if err := app.jsonResponse(w, http.StatusCreated, map[string]string{"orderId": orderID}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// BuyNow godoc
//
//	@Summary		Buy a single item directly
//	@Description	Orders one catalog item without touching the cart, by card or cash on delivery
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		BuyNowRequest	true	"Item, quantity, payment method and contact details"
//	@Success		200		{object}	checkout.FlowState
//	@Failure		404		{object}	error	"Unknown item"
//	@Security		ApiKeyAuth
//	@Router			/checkout/buy-now [post]
func (app *application) buyNowHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload BuyNowRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if problems := checkout.ValidateCheckoutInput(payload.CustomerInfo, payload.BillingAddress); len(problems) > 0 {
		app.validationFailedResponse(w, r, problems)
		return
	}

	item, err := app.buyNowLine(r, payload)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	if payload.PaymentMethod == checkout.PaymentMethodCashOnDelivery {
		orderID, err := app.checkout.CashOnDelivery(r.Context(), sessionID, []cart.LineItem{item}, payload.CustomerInfo, payload.BillingAddress)
		if err != nil {
			app.checkoutErrorResponse(w, r, err)
			return
		}
		app.sendOrderConfirmationEmail(sessionID, orderID, checkout.PaymentMethodCashOnDelivery)
		app.jsonResponse(w, http.StatusCreated, map[string]string{"orderId": orderID})
		return
	}

	state, err := app.checkout.Start(r.Context(), sessionID, []cart.LineItem{item}, payload.CustomerInfo, payload.BillingAddress)
	if err != nil {
		app.checkoutErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, state); err != nil {
		app.internalServerError(w, r, err)
	}
}

// buyNowLine resolves the catalog item into a single order line, clamped to
// the same quantity ceiling the cart enforces.
func (app *application) buyNowLine(r *http.Request, payload BuyNowRequest) (cart.LineItem, error) {
	fetch := app.catalog.Product
	if payload.ItemType == "service" {
		fetch = app.catalog.Service
	}
	record, err := fetch(r.Context(), payload.ItemID)
	if err != nil {
		return cart.LineItem{}, fmt.Errorf("catalog item %s: %w", payload.ItemID, err)
	}

	quantity := payload.Quantity
	if quantity < 1 {
		quantity = 1
	}

	item := cart.LineItem{
		ID:           record.ID,
		Name:         record.Name,
		BasePrice:    record.Price,
		HasPromotion: record.HasPromotion(),
		Quantity:     quantity,
		MaxAllowed:   cart.GlobalMaxPerProduct,
		ProductCode:  record.ProductCode,
		Unit:         record.Unit,
		Category:     record.Category,
		SubCategory:  record.SubCategory,
	}
	if record.StockQuantity != nil {
		stock := *record.StockQuantity
		item.StockQuantity = &stock
		if stock < item.MaxAllowed {
			item.MaxAllowed = stock
		}
	}
	if record.HasPromotion() {
		promo := record.PromotionPrice()
		item.PromotionPrice = &promo
	}
	if item.Quantity > item.MaxAllowed {
		item.Quantity = item.MaxAllowed
	}

	return item, nil
}

// PaymentStatus godoc
//
//	@Summary		Check payment status
//	@Description	Polls the processor for the state of the session's payment intent
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		ApiKeyAuth
//	@Router			/checkout/payment-status [get]
func (app *application) paymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := app.checkout.Status(r.Context(), getSessionFromContext(r))
	if err != nil {
		app.checkoutErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, status); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ResetCheckout godoc
//
//	@Summary		Abandon the checkout attempt
//	@Description	Discards flow state so a fresh checkout can start; the cart is untouched
//	@Tags			Checkout
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/checkout/reset [post]
func (app *application) resetCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	app.checkout.Reset(getSessionFromContext(r))
	w.WriteHeader(http.StatusNoContent)
}

// CheckoutOptions godoc
//
//	@Summary		Checkout form options
//	@Description	Emirates, cities and payment methods the form can offer
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/checkout/options [get]
func (app *application) checkoutOptionsHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"emirates":       checkout.Emirates,
		"cities":         checkout.Cities,
		"paymentMethods": []string{checkout.PaymentMethodCard, checkout.PaymentMethodCashOnDelivery},
		"vatRate":        pricing.VATRate,
	}
	if err := app.jsonResponse(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sendOrderConfirmationEmail fires the confirmation email off the request
// path. Failures are logged only.
func (app *application) sendOrderConfirmationEmail(sessionID, orderID, paymentMethod string) {
	items, customer, billing := app.checkout.OrderDetails(sessionID)
	if customer.Email == "" {
		return
	}

	totals := pricing.Calculate(cart.PricingLines(items), pricing.VATRate)

	type emailItem struct {
		Name     string
		Quantity int
		Price    string
	}
	emailItems := make([]emailItem, 0, len(items))
	for i, line := range cart.PricingLines(items) {
		emailItems = append(emailItems, emailItem{
			Name:     items[i].Name,
			Quantity: items[i].Quantity,
			Price:    fmt.Sprintf("%.2f", pricing.EffectiveUnitPrice(line)),
		})
	}

	data := map[string]any{
		"OrderID":         orderID,
		"CustomerName":    customer.Name,
		"Items":           emailItems,
		"Subtotal":        fmt.Sprintf("%.2f", totals.Subtotal),
		"VATAmount":       fmt.Sprintf("%.2f", totals.VATAmount),
		"TotalAmount":     fmt.Sprintf("%.2f", totals.TotalAmount),
		"PaymentMethod":   paymentMethod,
		"DeliveryAddress": fmt.Sprintf("%s, %s, %s", billing.Street, billing.City, billing.Emirate),
	}

	app.background(func() {
		status, err := app.mailer.Send(mailer.OrderConfirmationTemplate, customer.Name, customer.Email, data)
		if err != nil {
			app.logger.Errorw("order confirmation email failed", "order", orderID, "email", customer.Email, "error", err)
			return
		}
		app.logger.Infow("order confirmation email sent", "order", orderID, "status", status)
	})
}
