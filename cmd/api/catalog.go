package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListProducts godoc
//
//	@Summary		List catalog products
//	@Description	Proxies the backend catalog, normalized to one record shape
//	@Tags			Catalog
//	@Produce		json
//	@Success		200	{array}	catalog.Record
//	@Router			/catalog/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := app.catalog.Products(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, records); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetProduct godoc
//
//	@Summary		Get one product
//	@Tags			Catalog
//	@Produce		json
//	@Param			itemID	path		string	true	"Product id"
//	@Success		200		{object}	catalog.Record
//	@Failure		404		{object}	error	"Unknown product"
//	@Router			/catalog/products/{itemID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	rec, err := app.catalog.Product(r.Context(), itemID)
	if err != nil {
		app.notFoundResponse(w, r, fmt.Errorf("product %s: %w", itemID, err))
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, rec); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListServices godoc
//
//	@Summary		List grooming services
//	@Tags			Catalog
//	@Produce		json
//	@Success		200	{array}	catalog.Record
//	@Router			/catalog/services [get]
func (app *application) listServicesHandler(w http.ResponseWriter, r *http.Request) {
	records, err := app.catalog.Services(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, records); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetService godoc
//
//	@Summary		Get one grooming service
//	@Tags			Catalog
//	@Produce		json
//	@Param			itemID	path		string	true	"Service id"
//	@Success		200		{object}	catalog.Record
//	@Failure		404		{object}	error	"Unknown service"
//	@Router			/catalog/services/{itemID} [get]
func (app *application) getServiceHandler(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	rec, err := app.catalog.Service(r.Context(), itemID)
	if err != nil {
		app.notFoundResponse(w, r, fmt.Errorf("service %s: %w", itemID, err))
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, rec); err != nil {
		app.internalServerError(w, r, err)
	}
}
