package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// testBackend emulates the brokerage API for client tests
type testBackend struct {
	product      Product
	listed       []string
	status       int // non-zero forces this status on every response
	productCalls int
	orderCalls   int
	orderBodies  []string
}

func testProduct() Product {
	return Product{
		ProductID:      "BTC-USD",
		Price:          "50000",
		QuoteIncrement: "0.01",
		BaseIncrement:  "0.00000001",
		QuoteMinSize:   "1",
		QuoteMaxSize:   "10000000",
		BaseMinSize:    "0.00000001",
		BaseMaxSize:    "3400",
	}
}

func newTestClient(t *testing.T, backend *testBackend) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if backend.status != 0 {
			w.WriteHeader(backend.status)
			return
		}

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/brokerage/products":
			products := make([]Product, 0, len(backend.listed))
			for _, id := range backend.listed {
				products = append(products, Product{ProductID: id})
			}
			json.NewEncoder(w).Encode(ProductsResponse{Products: products})

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/v3/brokerage/products/"):
			backend.productCalls++
			json.NewEncoder(w).Encode(backend.product)

		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/brokerage/orders":
			backend.orderCalls++
			body, _ := io.ReadAll(r.Body)
			backend.orderBodies = append(backend.orderBodies, string(body))
			fmt.Fprint(w, `{"success":true,"success_response":{"order_id":"ord-1","product_id":"BTC-USD"}}`)

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return NewClient(domain.Credentials{Key: "test-key", Secret: "test-secret"}, server.URL)
}

func decodeOrderBody(t *testing.T, body string) orderRequest {
	t.Helper()
	var order orderRequest
	if err := json.Unmarshal([]byte(body), &order); err != nil {
		t.Fatalf("failed to decode order body %q: %v", body, err)
	}
	return order
}

func TestCurrencySigfigs(t *testing.T) {
	tests := []struct {
		increment string
		want      int32
		wantErr   bool
	}{
		{"0.01", 2, false},
		{"0.0001", 4, false},
		{"0.00000001", 8, false},
		{"1", 0, false},
		{"10", -1, false},
		{"0", 0, true},
		{"-0.01", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.increment, func(t *testing.T) {
			got, err := currencySigfigs(tt.increment)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidIncrement) {
					t.Errorf("currencySigfigs(%q) error = %v, want ErrInvalidIncrement", tt.increment, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("currencySigfigs(%q) unexpected error: %v", tt.increment, err)
			}
			if got != tt.want {
				t.Errorf("currencySigfigs(%q) = %d, want %d", tt.increment, got, tt.want)
			}
		})
	}
}

func TestCreateOrderBuy(t *testing.T) {
	backend := &testBackend{product: testProduct(), listed: []string{"BTC-USD", "ETH-USD"}}
	client := newTestClient(t, backend)

	resp, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, 10.0)
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error: %v", err)
	}

	if !resp.Success {
		t.Errorf("CreateOrder() success = false, want true")
	}
	if resp.SuccessResponse.OrderID != "ord-1" {
		t.Errorf("CreateOrder() order id = %q, want %q", resp.SuccessResponse.OrderID, "ord-1")
	}

	if backend.orderCalls != 1 {
		t.Fatalf("order endpoint called %d times, want 1", backend.orderCalls)
	}

	order := decodeOrderBody(t, backend.orderBodies[0])
	if order.Side != "BUY" {
		t.Errorf("order side = %q, want BUY", order.Side)
	}
	if order.ProductID != "BTC-USD" {
		t.Errorf("order product_id = %q, want BTC-USD", order.ProductID)
	}
	if order.OrderConfiguration.LimitLimitGTC.PostOnly {
		t.Errorf("order post_only = true, want false")
	}
	// 50000 * 0.998 rounded to 2 places
	if got := order.OrderConfiguration.LimitLimitGTC.LimitPrice; got != "49900.00" {
		t.Errorf("limit price = %q, want 49900.00", got)
	}
	// 10 / 49900 rounded to 8 places
	if got := order.OrderConfiguration.LimitLimitGTC.BaseSize; got != "0.00020040" {
		t.Errorf("base size = %q, want 0.00020040", got)
	}
	if _, err := uuid.FromString(order.ClientOrderID); err != nil {
		t.Errorf("client order id %q is not a valid UUID: %v", order.ClientOrderID, err)
	}
}

func TestCreateOrderSellPriceAboveReference(t *testing.T) {
	backend := &testBackend{product: testProduct(), listed: []string{"BTC-USD"}}
	client := newTestClient(t, backend)

	if _, err := client.CreateOrder(context.Background(), domain.SideSell, domain.PairBTCUSD, 10.0); err != nil {
		t.Fatalf("CreateOrder() unexpected error: %v", err)
	}

	order := decodeOrderBody(t, backend.orderBodies[0])
	// 50000 * 1.002 rounded to 2 places
	if got := order.OrderConfiguration.LimitLimitGTC.LimitPrice; got != "50100.00" {
		t.Errorf("limit price = %q, want 50100.00", got)
	}
	if got := order.OrderConfiguration.LimitLimitGTC.BaseSize; got != "0.00019960" {
		t.Errorf("base size = %q, want 0.00019960", got)
	}
}

func TestCreateOrderUnsupportedPair(t *testing.T) {
	backend := &testBackend{product: testProduct(), listed: []string{"ETH-USD"}}
	client := newTestClient(t, backend)

	_, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, 10.0)
	if !errors.Is(err, domain.ErrUnsupportedPair) {
		t.Fatalf("CreateOrder() error = %v, want ErrUnsupportedPair", err)
	}
	if backend.productCalls != 0 {
		t.Errorf("product detail fetched %d times before listing check, want 0", backend.productCalls)
	}
	if backend.orderCalls != 0 {
		t.Errorf("order endpoint called %d times, want 0", backend.orderCalls)
	}
}

func TestCreateOrderQuoteSizeBounds(t *testing.T) {
	tests := []struct {
		name      string
		quoteSize float64
		wantErr   bool
	}{
		{"at minimum", 1.0, false},
		{"below minimum", 0.99, true},
		{"at maximum", 100.0, false},
		{"above maximum", 100.01, true},
		{"in range", 10.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := testProduct()
			product.QuoteMaxSize = "100"
			backend := &testBackend{product: product, listed: []string{"BTC-USD"}}
			client := newTestClient(t, backend)

			_, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, tt.quoteSize)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrSizeOutOfBounds) {
					t.Fatalf("CreateOrder() error = %v, want ErrSizeOutOfBounds", err)
				}
				if backend.orderCalls != 0 {
					t.Errorf("order endpoint called %d times, want 0", backend.orderCalls)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateOrder() unexpected error: %v", err)
			}
		})
	}
}

func TestCreateOrderBaseSizeBounds(t *testing.T) {
	tests := []struct {
		name    string
		min     string
		max     string
		wantErr bool
	}{
		{"base below minimum", "0.001", "3400", true},
		{"base above maximum", "0.00000001", "0.0001", true},
		{"base in range", "0.00000001", "3400", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := testProduct()
			product.BaseMinSize = tt.min
			product.BaseMaxSize = tt.max
			backend := &testBackend{product: product, listed: []string{"BTC-USD"}}
			client := newTestClient(t, backend)

			_, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, 10.0)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrSizeOutOfBounds) {
					t.Fatalf("CreateOrder() error = %v, want ErrSizeOutOfBounds", err)
				}
				if backend.orderCalls != 0 {
					t.Errorf("order endpoint called %d times, want 0", backend.orderCalls)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateOrder() unexpected error: %v", err)
			}
		})
	}
}

func TestCreateOrderInvalidIncrement(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Product)
	}{
		{"zero quote increment", func(p *Product) { p.QuoteIncrement = "0" }},
		{"negative quote increment", func(p *Product) { p.QuoteIncrement = "-0.01" }},
		{"zero base increment", func(p *Product) { p.BaseIncrement = "0" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := testProduct()
			tt.mutate(&product)
			backend := &testBackend{product: product, listed: []string{"BTC-USD"}}
			client := newTestClient(t, backend)

			_, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, 10.0)
			if !errors.Is(err, domain.ErrInvalidIncrement) {
				t.Fatalf("CreateOrder() error = %v, want ErrInvalidIncrement", err)
			}
			if backend.orderCalls != 0 {
				t.Errorf("order endpoint called %d times, want 0", backend.orderCalls)
			}
		})
	}
}

func TestCreateOrderNonPositiveQuoteSize(t *testing.T) {
	backend := &testBackend{product: testProduct(), listed: []string{"BTC-USD"}}
	client := newTestClient(t, backend)

	for _, quoteSize := range []float64{0, -5} {
		_, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, quoteSize)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("CreateOrder(%v) error = %v, want ErrInvalidInput", quoteSize, err)
		}
	}
}

func TestCreateOrderUnauthorized(t *testing.T) {
	backend := &testBackend{status: http.StatusUnauthorized}
	client := newTestClient(t, backend)

	_, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, 10.0)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("CreateOrder() error = %v, want ErrUnauthorized", err)
	}
	if backend.orderCalls != 0 {
		t.Errorf("order endpoint called %d times, want 0", backend.orderCalls)
	}
}

func TestCreateOrderUniqueClientOrderIDs(t *testing.T) {
	backend := &testBackend{product: testProduct(), listed: []string{"BTC-USD"}}
	client := newTestClient(t, backend)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		if _, err := client.CreateOrder(context.Background(), domain.SideBuy, domain.PairBTCUSD, 10.0); err != nil {
			t.Fatalf("CreateOrder() unexpected error: %v", err)
		}
	}

	for _, body := range backend.orderBodies {
		order := decodeOrderBody(t, body)
		if seen[order.ClientOrderID] {
			t.Fatalf("duplicate client order id %q", order.ClientOrderID)
		}
		seen[order.ClientOrderID] = true
	}
}
