package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// TestRequestSignature verifies the access headers and recomputes the
// expected HMAC server-side from the received timestamp, method, path and
// body, so the message concatenation order is checked independently.
func TestRequestSignature(t *testing.T) {
	const secret = "test-secret"

	var checked bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checked = true

		if got := r.Header.Get("accept"); got != "application/json" {
			t.Errorf("accept header = %q, want application/json", got)
		}
		if got := r.Header.Get("CB-ACCESS-KEY"); got != "test-key" {
			t.Errorf("CB-ACCESS-KEY = %q, want test-key", got)
		}

		timestamp := r.Header.Get("CB-ACCESS-TIMESTAMP")
		seconds, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			t.Fatalf("CB-ACCESS-TIMESTAMP %q is not epoch seconds: %v", timestamp, err)
		}
		if diff := time.Since(time.Unix(seconds, 0)); diff < -time.Minute || diff > time.Minute {
			t.Errorf("timestamp %d is not current (diff %s)", seconds, diff)
		}

		body, _ := io.ReadAll(r.Body)
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(timestamp + r.Method + r.URL.Path + string(body)))
		want := hex.EncodeToString(mac.Sum(nil))

		if got := r.Header.Get("CB-ACCESS-SIGN"); got != want {
			t.Errorf("CB-ACCESS-SIGN = %q, want %q", got, want)
		}

		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(domain.Credentials{Key: "test-key", Secret: secret}, server.URL)

	if _, err := client.request(context.Background(), http.MethodGet, resourceProducts, ""); err != nil {
		t.Fatalf("request() unexpected error: %v", err)
	}
	if _, err := client.request(context.Background(), http.MethodPost, resourceOrders, `{"product_id":"BTC-USD"}`); err != nil {
		t.Fatalf("request() unexpected error: %v", err)
	}
	if !checked {
		t.Fatal("server handler never ran")
	}
}

func TestGenerateSignatureDeterministic(t *testing.T) {
	client := NewClient(domain.Credentials{Key: "k", Secret: "s"}, "http://localhost")

	a := client.generateSignature("1700000000", "GET", "/api/v3/brokerage/products", "")
	b := client.generateSignature("1700000000", "GET", "/api/v3/brokerage/products", "")
	if a != b {
		t.Errorf("same inputs produced different signatures: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("signature length = %d, want 64 hex chars", len(a))
	}

	c := client.generateSignature("1700000000", "GET", "/api/v3/brokerage/products", "x")
	if a == c {
		t.Error("different bodies produced the same signature")
	}

	other := NewClient(domain.Credentials{Key: "k", Secret: "different"}, "http://localhost")
	d := other.generateSignature("1700000000", "GET", "/api/v3/brokerage/products", "")
	if a == d {
		t.Error("different secrets produced the same signature")
	}
}

func TestListProducts(t *testing.T) {
	backend := &testBackend{listed: []string{"BTC-USD", "ETH-USD", "BTC-USDC"}}
	client := newTestClient(t, backend)

	ids, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ListProducts() returned %d ids, want 3", len(ids))
	}
	if ids[0] != "BTC-USD" || ids[2] != "BTC-USDC" {
		t.Errorf("ListProducts() = %v", ids)
	}
}

func TestGetPrice(t *testing.T) {
	product := testProduct()
	product.Price = "50000.25"
	backend := &testBackend{product: product}
	client := newTestClient(t, backend)

	price, err := client.GetPrice(context.Background(), domain.PairBTCUSD)
	if err != nil {
		t.Fatalf("GetPrice() unexpected error: %v", err)
	}
	if price != 50000.25 {
		t.Errorf("GetPrice() = %v, want 50000.25", price)
	}
}

func TestAvailableBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/brokerage/accounts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"accounts":[
			{"currency":"BTC","available_balance":{"value":"0.5","currency":"BTC"}},
			{"currency":"USD","available_balance":{"value":"123.45","currency":"USD"}}
		]}`)
	}))
	defer server.Close()

	client := NewClient(domain.Credentials{Key: "k", Secret: "s"}, server.URL)

	tests := []struct {
		currency string
		want     float64
	}{
		{"USD", 123.45},
		{"BTC", 0.5},
		{"EUR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			got, err := client.AvailableBalance(context.Background(), tt.currency)
			if err != nil {
				t.Fatalf("AvailableBalance(%s) unexpected error: %v", tt.currency, err)
			}
			if got != tt.want {
				t.Errorf("AvailableBalance(%s) = %v, want %v", tt.currency, got, tt.want)
			}
		})
	}
}
