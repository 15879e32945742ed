package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// priceDelta is the fixed limit price offset from the reference price:
// subtracted for BUY so the order rests just below market, added for SELL.
var priceDelta = decimal.NewFromFloat(0.002)

var one = decimal.NewFromInt(1)

// OrderResponse is the parsed order creation payload. Business-level error
// codes are carried through for the caller to inspect.
type OrderResponse struct {
	Success         bool `json:"success"`
	SuccessResponse struct {
		OrderID       string `json:"order_id"`
		ProductID     string `json:"product_id"`
		Side          string `json:"side"`
		ClientOrderID string `json:"client_order_id"`
	} `json:"success_response"`
	ErrorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"error_response"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

type orderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	Side               string             `json:"side"`
	ProductID          string             `json:"product_id"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

type OrderConfiguration struct {
	LimitLimitGTC LimitLimitGTC `json:"limit_limit_gtc"`
}

type LimitLimitGTC struct {
	PostOnly   bool   `json:"post_only"`
	LimitPrice string `json:"limit_price"`
	BaseSize   string `json:"base_size"`
}

// CreateOrder places a limit good-till-cancelled order sized from live
// product constraints. quoteSize is the total spend in quote currency
// (for BTC-USD, an amount in USD). The pair must be currently listed and
// both the quote spend and the computed base size must fall within the
// exchange-declared bounds; any violation aborts before submission.
func (c *Client) CreateOrder(ctx context.Context, side domain.Side, pair domain.Pair, quoteSize float64) (*OrderResponse, error) {
	if quoteSize <= 0 {
		return nil, fmt.Errorf("%w: quote size must be positive, got %v", domain.ErrInvalidInput, quoteSize)
	}

	listed, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if !containsString(listed, pair.String()) {
		return nil, fmt.Errorf("%w: %s is not listed", domain.ErrUnsupportedPair, pair)
	}

	product, err := c.GetProduct(ctx, pair)
	if err != nil {
		return nil, err
	}

	quote := decimal.NewFromFloat(quoteSize)
	quoteMin, err := parseDecimal("quote_min_size", product.QuoteMinSize)
	if err != nil {
		return nil, err
	}
	quoteMax, err := parseDecimal("quote_max_size", product.QuoteMaxSize)
	if err != nil {
		return nil, err
	}
	if quote.Cmp(quoteMin) < 0 || quote.Cmp(quoteMax) > 0 {
		return nil, fmt.Errorf("%w: quote size %s outside [%s, %s]",
			domain.ErrSizeOutOfBounds, quote, quoteMin, quoteMax)
	}

	// Limit price in quote currency: reference price shifted by the fixed
	// delta, then rounded to the precision implied by quote_increment.
	quoteDigits, err := currencySigfigs(product.QuoteIncrement)
	if err != nil {
		return nil, err
	}
	price, err := parseDecimal("price", product.Price)
	if err != nil {
		return nil, err
	}
	factor := one.Sub(priceDelta)
	if side == domain.SideSell {
		factor = one.Add(priceDelta)
	}
	limitPrice := price.Mul(factor).Round(quoteDigits)

	// Base quantity to trade for the requested quote spend
	baseDigits, err := currencySigfigs(product.BaseIncrement)
	if err != nil {
		return nil, err
	}
	baseSize := quote.Div(limitPrice).Round(baseDigits)

	baseMin, err := parseDecimal("base_min_size", product.BaseMinSize)
	if err != nil {
		return nil, err
	}
	baseMax, err := parseDecimal("base_max_size", product.BaseMaxSize)
	if err != nil {
		return nil, err
	}
	if baseSize.Cmp(baseMin) < 0 || baseSize.Cmp(baseMax) > 0 {
		return nil, fmt.Errorf("%w: base size %s outside [%s, %s]",
			domain.ErrSizeOutOfBounds, baseSize, baseMin, baseMax)
	}

	clientOrderID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client order id: %w", err)
	}

	order := orderRequest{
		ClientOrderID: clientOrderID.String(),
		Side:          side.String(),
		ProductID:     pair.String(),
		OrderConfiguration: OrderConfiguration{
			LimitLimitGTC: LimitLimitGTC{
				PostOnly:   false,
				LimitPrice: limitPrice.StringFixed(quoteDigits),
				BaseSize:   baseSize.StringFixed(baseDigits),
			},
		},
	}
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	data, err := c.request(ctx, http.MethodPost, resourceOrders, string(body))
	if err != nil {
		return nil, err
	}

	var orderResp OrderResponse
	if err := json.Unmarshal(data, &orderResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order response: %w", err)
	}
	// Not every response echoes the configuration back
	if orderResp.OrderConfiguration.LimitLimitGTC.LimitPrice == "" {
		orderResp.OrderConfiguration = order.OrderConfiguration
	}
	return &orderResp, nil
}

// currencySigfigs returns the number of decimal places implied by a currency
// increment string: -floor(log10(x)). "0.01" -> 2, "1" -> 0.
func currencySigfigs(increment string) (int32, error) {
	value, err := decimal.NewFromString(increment)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidIncrement, increment)
	}
	f, _ := value.Float64()
	if f <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", domain.ErrInvalidIncrement, increment)
	}
	return int32(-math.Floor(math.Log10(f))), nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
