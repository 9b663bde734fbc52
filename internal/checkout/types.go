package checkout

import (
	"time"

	"paws/internal/cart"
	"paws/internal/pricing"
)

// CustomerInfo is the shopper's contact block collected by the checkout form.
type CustomerInfo struct {
	Name       string `json:"name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,uaephone"`
	EmiratesID string `json:"emiratesId,omitempty" validate:"omitempty,emiratesid"`
}

// BillingAddress doubles as the delivery address; the backend order contract
// takes both and the storefront sends the same block for each.
type BillingAddress struct {
	Street     string `json:"street" validate:"required,min=5"`
	City       string `json:"city" validate:"required"`
	Emirate    string `json:"emirate" validate:"required"`
	Country    string `json:"country" validate:"required,eq=UAE"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Address is the wire shape the order API expects; it calls the emirate
// field "state".
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

func (b BillingAddress) wire() Address {
	country := b.Country
	if country == "" {
		country = "UAE"
	}
	return Address{Street: b.Street, City: b.City, State: b.Emirate, Country: country}
}

// OrderItem references a catalog product with the unit price the shopper was
// quoted (promotion already applied).
type OrderItem struct {
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderPayload is the order-creation request body.
type OrderPayload struct {
	OrderType       string      `json:"orderType"`
	CustomerName    string      `json:"customerName"`
	ContactNumber   string      `json:"contactNumber"`
	Email           string      `json:"email"`
	EmiratesID      string      `json:"emiratesId,omitempty"`
	DeliveryAddress Address     `json:"deliveryAddress"`
	BillingAddress  Address     `json:"billingAddress"`
	Products        []OrderItem `json:"products"`
	PaymentMethod   string      `json:"paymentMethod"`
	Subtotal        float64     `json:"subtotal"`
	TaxAmount       float64     `json:"taxAmount"`
	TotalAmount     float64     `json:"totalAmount"`
	DeliveryFee     float64     `json:"deliveryFee"`
	OrderNotes      string      `json:"orderNotes"`
	PaymentStatus   string      `json:"paymentStatus"`
	OrderDate       string      `json:"orderDate"`
}

const (
	PaymentMethodCard           = "stripe"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// BuildOrderPayload maps cart lines to the order contract and prices them
// through the pricing engine, so the amount sent to the backend always
// matches what the cart showed.
func BuildOrderPayload(items []cart.LineItem, customer CustomerInfo, billing BillingAddress, method string) OrderPayload {
	products := make([]OrderItem, 0, len(items))
	lines := cart.PricingLines(items)
	for i, item := range items {
		products = append(products, OrderItem{
			Product:  item.ID,
			Quantity: item.Quantity,
			Price:    pricing.EffectiveUnitPrice(lines[i]),
		})
	}

	totals := pricing.Calculate(lines, pricing.VATRate)

	return OrderPayload{
		OrderType:       "normal",
		CustomerName:    customer.Name,
		ContactNumber:   customer.Phone,
		Email:           customer.Email,
		EmiratesID:      customer.EmiratesID,
		DeliveryAddress: billing.wire(),
		BillingAddress:  billing.wire(),
		Products:        products,
		PaymentMethod:   method,
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.VATAmount,
		TotalAmount:     totals.TotalAmount,
		PaymentStatus:   "pending",
		OrderDate:       time.Now().UTC().Format(time.RFC3339),
	}
}

// PaymentIntent is what the payment-intent API hands back; ClientSecret is
// what the processor's client library needs for card tokenization.
type PaymentIntent struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}

// Step is the checkout flow position. The flow only ever moves forward on
// the happy path; failures stay on the step they hit.
type Step string

const (
	StepOrder        Step = "order"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// FlowState is the ephemeral per-attempt checkout state. It is never
// persisted; abandoning the flow discards it.
type FlowState struct {
	Step            Step   `json:"currentStep"`
	OrderID         string `json:"orderId,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	ClientSecret    string `json:"clientSecret,omitempty"`
	Error           string `json:"error,omitempty"`
	Loading         bool   `json:"loading"`
}
