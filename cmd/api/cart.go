package main

import (
	"fmt"
	"net/http"

	"paws/internal/cart"
	"paws/internal/catalog"
	"paws/internal/pricing"

	"github.com/go-chi/chi/v5"
)

// AddCartItemRequest identifies a catalog item and how many units to add.
type AddCartItemRequest struct {
	ItemID   string `json:"itemId" validate:"required"`
	ItemType string `json:"itemType" validate:"omitempty,oneof=product service"`
	Quantity int    `json:"quantity"`
}

// UpdateCartItemRequest sets an absolute quantity for a cart line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the full cart view: lines plus derived totals.
type CartResponse struct {
	Items  []cart.LineItem `json:"items"`
	Totals pricing.Totals  `json:"totals"`
}

func (app *application) cartResponse(r *http.Request, sessionID string) CartResponse {
	return CartResponse{
		Items:  app.carts.Items(r.Context(), sessionID),
		Totals: app.carts.Totals(r.Context(), sessionID),
	}
}

// rejectMessage renders a cap rejection for the shopper.
func rejectMessage(reason cart.RejectReason, name string) string {
	switch reason {
	case cart.ReasonStockLimit:
		return fmt.Sprintf("Only limited stock of %s is available", name)
	case cart.ReasonMaximumReached:
		return fmt.Sprintf("You already have the maximum quantity of %s in your cart", name)
	default:
		return fmt.Sprintf("You can order up to %d units of %s", cart.GlobalMaxPerProduct, name)
	}
}

// GetCart godoc
//
//	@Summary		Get the session's cart
//	@Description	Returns all cart lines and computed totals
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	CartResponse
//	@Security		ApiKeyAuth
//	@Router			/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)
	if err := app.jsonResponse(w, http.StatusOK, app.cartResponse(r, sessionID)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// AddCartItem godoc
//
//	@Summary		Add an item to the cart
//	@Description	Resolves the catalog item and adds the requested quantity, subject to stock and per-product limits
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AddCartItemRequest	true	"Item to add"
//	@Success		200		{object}	CartResponse
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		404		{object}	error	"Unknown item"
//	@Failure		409		{object}	error	"Quantity limit reached"
//	@Security		ApiKeyAuth
//	@Router			/cart/items [post]
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload AddCartItemRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var rec *catalog.Record
	var err error
	if payload.ItemType == "service" {
		rec, err = app.catalog.Service(r.Context(), payload.ItemID)
	} else {
		rec, err = app.catalog.Product(r.Context(), payload.ItemID)
	}
	if err != nil {
		app.notFoundResponse(w, r, fmt.Errorf("catalog item %s: %w", payload.ItemID, err))
		return
	}

	ok, reason := app.carts.AddItem(r.Context(), sessionID, *rec, payload.Quantity)
	if !ok {
		app.conflictResponse(w, r, fmt.Errorf("%s", rejectMessage(reason, rec.Name)))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.cartResponse(r, sessionID)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UpdateCartItem godoc
//
//	@Summary		Set a cart line's quantity
//	@Description	Updates the quantity for one cart line; zero removes the line
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			itemID	path		string					true	"Cart line item id"
//	@Param			payload	body		UpdateCartItemRequest	true	"New quantity"
//	@Success		200		{object}	CartResponse
//	@Failure		409		{object}	error	"Quantity limit reached"
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{itemID} [put]
func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)
	itemID := chi.URLParam(r, "itemID")

	var payload UpdateCartItemRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	inCart := app.carts.IsInCart(r.Context(), sessionID, itemID)
	if !app.carts.UpdateQuantity(r.Context(), sessionID, itemID, payload.Quantity) {
		if !inCart {
			app.notFoundResponse(w, r, fmt.Errorf("item %s is not in the cart", itemID))
			return
		}
		max := app.carts.MaxAllowedFor(r.Context(), sessionID, itemID)
		app.conflictResponse(w, r, fmt.Errorf("quantity is limited to %d for this item", max))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.cartResponse(r, sessionID)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RemoveCartItem godoc
//
//	@Summary		Remove a cart line
//	@Description	Deletes the line regardless of quantity; removing an absent item is a no-op
//	@Tags			Cart
//	@Produce		json
//	@Param			itemID	path		string	true	"Cart line item id"
//	@Success		200		{object}	CartResponse
//	@Security		ApiKeyAuth
//	@Router			/cart/items/{itemID} [delete]
func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)
	app.carts.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "itemID"))

	if err := app.jsonResponse(w, http.StatusOK, app.cartResponse(r, sessionID)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ClearCart godoc
//
//	@Summary		Clear the cart
//	@Description	Removes all lines and deletes the persisted snapshot
//	@Tags			Cart
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/cart [delete]
func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	app.carts.Clear(r.Context(), getSessionFromContext(r))
	w.WriteHeader(http.StatusNoContent)
}

// GetCartTotals godoc
//
//	@Summary		Get cart totals
//	@Description	Returns subtotal, savings, VAT and total, plus the unit count for the cart badge
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	pricing.Totals
//	@Security		ApiKeyAuth
//	@Router			/cart/totals [get]
func (app *application) getCartTotalsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	totals := app.carts.Totals(r.Context(), sessionID)
	resp := struct {
		pricing.Totals
		Display string `json:"display"`
	}{
		Totals:  totals,
		Display: pricing.FormatAED(totals.TotalAmount),
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
