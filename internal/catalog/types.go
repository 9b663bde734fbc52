package catalog

// Promotion is a time-bounded reduced price resolved by the backend catalog.
// The storefront never re-evaluates activity windows; presence means active.
type Promotion struct {
	Price float64 `json:"price"`
}

// Record is a normalized catalog entry, product or grooming service.
// The backend exposes slightly different field names per kind
// (productDetail vs serviceName, salePrice vs servicePrice); decoding
// flattens them here so nothing downstream deals with shape variants.
type Record struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Price         float64    `json:"price"`
	Promotion     *Promotion `json:"promotion,omitempty"`
	StockQuantity *int       `json:"stockQuantity,omitempty"`
	ProductCode   string     `json:"productCode,omitempty"`
	Type          string     `json:"type"` // "product" or "service"
	Unit          string     `json:"unit,omitempty"`
	Category      string     `json:"category,omitempty"`
	SubCategory   string     `json:"subCategory,omitempty"`
}

// HasPromotion reports whether the catalog resolved an active promotion.
func (r Record) HasPromotion() bool {
	return r.Promotion != nil && r.Promotion.Price > 0
}

// PromotionPrice returns the promotional unit price, or 0 when none is active.
func (r Record) PromotionPrice() float64 {
	if r.Promotion == nil {
		return 0
	}
	return r.Promotion.Price
}

// EffectivePrice is the unit price a shopper pays right now.
func (r Record) EffectivePrice() float64 {
	if r.HasPromotion() {
		return r.Promotion.Price
	}
	return r.Price
}

// wireRecord matches the backend catalog payload for both products and
// services before normalization.
type wireRecord struct {
	ID            string     `json:"_id"`
	Name          string     `json:"name"`
	ProductDetail string     `json:"productDetail"`
	ServiceName   string     `json:"serviceName"`
	Price         float64    `json:"price"`
	SalePrice     float64    `json:"salePrice"`
	ServicePrice  float64    `json:"servicePrice"`
	Promotion     *Promotion `json:"promotion"`
	StockQuantity *int       `json:"stockQuantity"`
	ProductCode   string     `json:"productCode"`
	ServiceCode   string     `json:"serviceCode"`
	Type          string     `json:"type"`
	Unit          string     `json:"unit"`
	Category      string     `json:"category"`
	SubCategory   string     `json:"subCategory"`
}

func (w wireRecord) normalize() Record {
	rec := Record{
		ID:            w.ID,
		Name:          w.ProductDetail,
		Price:         w.SalePrice,
		Promotion:     w.Promotion,
		StockQuantity: w.StockQuantity,
		ProductCode:   w.ProductCode,
		Type:          w.Type,
		Unit:          w.Unit,
		Category:      w.Category,
		SubCategory:   w.SubCategory,
	}

	if rec.Name == "" {
		rec.Name = w.ServiceName
	}
	if rec.Name == "" {
		rec.Name = w.Name
	}
	if rec.Price == 0 {
		rec.Price = w.ServicePrice
	}
	if rec.Price == 0 {
		rec.Price = w.Price
	}
	if rec.ProductCode == "" {
		rec.ProductCode = w.ServiceCode
	}
	if rec.Type == "" {
		rec.Type = "product"
	}
	if rec.Unit == "" {
		rec.Unit = "piece"
	}

	return rec
}
