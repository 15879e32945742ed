package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// API resources under the brokerage base path
const (
	resourceAccounts = "accounts"
	resourceOrders   = "orders"
	resourceProducts = "products"
)

// Client is a Coinbase Advanced Trade REST client
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
}

// Product holds the exchange-declared constraints for a trading pair.
// Fetched fresh before every order; prices are time-sensitive and a
// Product value must never be reused across orders.
type Product struct {
	ProductID      string `json:"product_id"`
	Price          string `json:"price"`
	QuoteIncrement string `json:"quote_increment"`
	BaseIncrement  string `json:"base_increment"`
	QuoteMinSize   string `json:"quote_min_size"`
	QuoteMaxSize   string `json:"quote_max_size"`
	BaseMinSize    string `json:"base_min_size"`
	BaseMaxSize    string `json:"base_max_size"`
}

type ProductsResponse struct {
	Products []Product `json:"products"`
}

type AccountsResponse struct {
	Accounts []struct {
		Currency         string `json:"currency"`
		AvailableBalance struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"available_balance"`
	} `json:"accounts"`
}

// NewClient creates a Coinbase client. baseURL is the scheme+host part and
// defaults to the production API host when empty.
func NewClient(creds domain.Credentials, baseURL string) *Client {
	if baseURL == "" {
		baseURL = domain.CoinbaseHost
	}
	return &Client{
		apiKey:    creds.Key,
		apiSecret: creds.Secret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(10), 10),
	}
}

// ListProducts returns the product ids of all currently listed products
func (c *Client) ListProducts(ctx context.Context) ([]string, error) {
	data, err := c.request(ctx, http.MethodGet, resourceProducts, "")
	if err != nil {
		return nil, err
	}

	var productsResp ProductsResponse
	if err := json.Unmarshal(data, &productsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products response: %w", err)
	}

	ids := make([]string, 0, len(productsResp.Products))
	for _, product := range productsResp.Products {
		ids = append(ids, product.ProductID)
	}
	return ids, nil
}

// GetProduct fetches the current constraints and reference price for a pair
func (c *Client) GetProduct(ctx context.Context, pair domain.Pair) (*Product, error) {
	data, err := c.request(ctx, http.MethodGet, resourceProducts+"/"+pair.String(), "")
	if err != nil {
		return nil, err
	}

	var product Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product response: %w", err)
	}

	if product.ProductID == "" {
		return nil, fmt.Errorf("%w: no product data for %s", domain.ErrExchangeAPI, pair)
	}
	return &product, nil
}

// GetPrice returns the current reference price for a pair
func (c *Client) GetPrice(ctx context.Context, pair domain.Pair) (float64, error) {
	product, err := c.GetProduct(ctx, pair)
	if err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(product.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price for %s: %w", pair, err)
	}
	return price, nil
}

// AvailableBalance returns the available balance for a currency
func (c *Client) AvailableBalance(ctx context.Context, currency string) (float64, error) {
	data, err := c.request(ctx, http.MethodGet, resourceAccounts, "")
	if err != nil {
		return 0, err
	}

	var accountsResp AccountsResponse
	if err := json.Unmarshal(data, &accountsResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal accounts response: %w", err)
	}

	for _, account := range accountsResp.Accounts {
		if account.Currency != currency {
			continue
		}
		if account.AvailableBalance.Value == "" {
			return 0, nil
		}
		balance, err := strconv.ParseFloat(account.AvailableBalance.Value, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse balance for %s: %w", currency, err)
		}
		return balance, nil
	}

	return 0, nil
}

// request executes a signed HTTP call against the brokerage API and returns
// the raw response body. Business-level error payloads are returned as-is to
// the caller; a 401 is normalized to domain.ErrUnauthorized.
func (c *Client) request(ctx context.Context, method, resource, body string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := domain.CoinbaseBasePath + resource
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := c.generateSignature(timestamp, method, endpoint, body)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuthHeaders(req, timestamp, signature)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: check API key and secret", domain.ErrUnauthorized)
	}

	return data, nil
}

// generateSignature signs timestamp+method+path+body with HMAC-SHA256. The
// timestamp is generated once per request and reused for the header.
func (c *Client) generateSignature(timestamp, method, path, body string) string {
	message := timestamp + method + path + body
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// setAuthHeaders sets the Coinbase access headers on a request
func (c *Client) setAuthHeaders(req *http.Request, timestamp, signature string) {
	req.Header.Set("accept", "application/json")
	req.Header.Set("CB-ACCESS-KEY", c.apiKey)
	req.Header.Set("CB-ACCESS-SIGN", signature)
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
}
