package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProductsNormalizeWireShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": [
			{"_id": "p1", "productDetail": "Dog Shampoo 500ml", "salePrice": 45, "stockQuantity": 3, "productCode": "DS-500", "type": "product", "unit": "bottle"},
			{"_id": "p2", "name": "Flea Collar", "price": 30, "promotion": {"price": 25}}
		]}`))
	}))
	defer srv.Close()

	records, err := NewClient(srv.URL).Products(context.Background())
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	p1 := records[0]
	if p1.ID != "p1" || p1.Name != "Dog Shampoo 500ml" || p1.Price != 45 {
		t.Fatalf("p1 not normalized: %+v", p1)
	}
	if p1.StockQuantity == nil || *p1.StockQuantity != 3 {
		t.Fatalf("p1 stock lost: %+v", p1)
	}
	if p1.HasPromotion() {
		t.Fatal("p1 has no promotion")
	}

	p2 := records[1]
	if p2.Name != "Flea Collar" || p2.Price != 30 {
		t.Fatalf("p2 fallback fields not applied: %+v", p2)
	}
	if !p2.HasPromotion() || p2.EffectivePrice() != 25 {
		t.Fatalf("p2 promotion not resolved: %+v", p2)
	}
	if p2.Type != "product" || p2.Unit != "piece" {
		t.Fatalf("p2 defaults missing: %+v", p2)
	}
}

func TestServiceNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/s1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": {"_id": "s1", "serviceName": "Full Grooming", "servicePrice": 150, "serviceCode": "GRM-01", "type": "service"}}`))
	}))
	defer srv.Close()

	rec, err := NewClient(srv.URL).Service(context.Background(), "s1")
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if rec.Name != "Full Grooming" || rec.Price != 150 || rec.ProductCode != "GRM-01" {
		t.Fatalf("service not normalized: %+v", rec)
	}
	if rec.StockQuantity != nil {
		t.Fatalf("services have no stock: %+v", rec)
	}
}

func TestGetMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Product(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for record without id")
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Products(context.Background()); err == nil {
		t.Fatal("expected error for 503")
	}
}
