package strategy

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kirillm/coinbase-dca/internal/domain"
	"github.com/kirillm/coinbase-dca/internal/exchange"
	"github.com/kirillm/coinbase-dca/pkg/utils"
)

// Exchange is the slice of the exchange client the strategy needs
type Exchange interface {
	CreateOrder(ctx context.Context, side domain.Side, pair domain.Pair, quoteSize float64) (*exchange.OrderResponse, error)
	AvailableBalance(ctx context.Context, currency string) (float64, error)
	GetPrice(ctx context.Context, pair domain.Pair) (float64, error)
}

// TradeStore is the slice of the storage facade the strategy needs
type TradeStore interface {
	SaveTrade(trade *domain.Trade) error
	GetRecentTrades(pair string, limit int) ([]domain.Trade, error)
	GetPosition(pair string) (*domain.Position, error)
	UpdatePosition(position *domain.Position) error
}

// DCAStrategy places one limit order per interval. Each run is a stateless
// request/response cycle against the exchange; the ledger and notifier are
// best-effort and never block an already-submitted order.
type DCAStrategy struct {
	exchange   Exchange
	store      TradeStore // nil disables the ledger
	logger     *utils.Logger
	pair       domain.Pair
	side       domain.Side
	amount     float64
	interval   time.Duration
	stopChan   chan struct{}
	notifyFunc func(string)
}

func NewDCAStrategy(
	ex Exchange,
	store TradeStore,
	logger *utils.Logger,
	pair domain.Pair,
	side domain.Side,
	amount float64,
	interval time.Duration,
	notifyFunc func(string),
) *DCAStrategy {
	return &DCAStrategy{
		exchange:   ex,
		store:      store,
		logger:     logger,
		pair:       pair,
		side:       side,
		amount:     amount,
		interval:   interval,
		stopChan:   make(chan struct{}),
		notifyFunc: notifyFunc,
	}
}

// Start runs the DCA loop until Stop is called
func (d *DCAStrategy) Start(ctx context.Context, runOnStart bool) {
	d.logger.Info("DCA strategy started for %s: %s %.2f %s every %s",
		d.pair, d.side, d.amount, d.pair.Quote(), d.interval)

	if runOnStart {
		if err := d.RunOnce(ctx); err != nil {
			d.logger.Error("DCA execution failed: %v", err)
			d.notify(fmt.Sprintf("❌ DCA failed: %v", err))
		}
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("DCA execution failed: %v", err)
				d.notify(fmt.Sprintf("❌ DCA failed: %v", err))
			}
		case <-d.stopChan:
			d.logger.Info("DCA strategy stopped")
			return
		case <-ctx.Done():
			d.logger.Info("DCA strategy stopped: %v", ctx.Err())
			return
		}
	}
}

// Stop terminates the DCA loop
func (d *DCAStrategy) Stop() {
	close(d.stopChan)
}

// RunOnce executes a single DCA order at the configured amount
func (d *DCAStrategy) RunOnce(ctx context.Context) error {
	return d.execute(ctx, d.amount, domain.StrategyDCA)
}

// ExecuteManual places an order outside the schedule. A non-positive amount
// falls back to the configured DCA amount.
func (d *DCAStrategy) ExecuteManual(ctx context.Context, amount float64) error {
	if amount <= 0 {
		amount = d.amount
	}
	return d.execute(ctx, amount, domain.StrategyManual)
}

func (d *DCAStrategy) execute(ctx context.Context, amount float64, strategyType string) error {
	d.logger.Info("Executing DCA %s for %s, %.2f %s", d.side, d.pair, amount, d.pair.Quote())

	if d.side == domain.SideBuy {
		balance, err := d.exchange.AvailableBalance(ctx, d.pair.Quote())
		if err != nil {
			return fmt.Errorf("failed to get %s balance: %w", d.pair.Quote(), err)
		}
		if balance < amount {
			return fmt.Errorf("%w: have %.2f %s, need %.2f",
				domain.ErrInsufficientBalance, balance, d.pair.Quote(), amount)
		}
	}

	resp, err := d.exchange.CreateOrder(ctx, d.side, d.pair, amount)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	limitPrice, _ := strconv.ParseFloat(resp.OrderConfiguration.LimitLimitGTC.LimitPrice, 64)
	baseSize, _ := strconv.ParseFloat(resp.OrderConfiguration.LimitLimitGTC.BaseSize, 64)

	status := domain.StatusPlaced
	if !resp.Success {
		status = domain.StatusRejected
	}

	d.record(&domain.Trade{
		Pair:         d.pair.String(),
		Side:         d.side.String(),
		BaseSize:     baseSize,
		LimitPrice:   limitPrice,
		QuoteAmount:  amount,
		OrderID:      resp.SuccessResponse.OrderID,
		Status:       status,
		StrategyType: strategyType,
		CreatedAt:    time.Now(),
	})

	if !resp.Success {
		return fmt.Errorf("%w: %s %s",
			domain.ErrExchangeAPI, resp.ErrorResponse.Error, resp.ErrorResponse.Message)
	}

	d.logger.Info("Order placed: %s %s %s @ %s (order id %s)",
		d.side, resp.OrderConfiguration.LimitLimitGTC.BaseSize, d.pair.Base(),
		resp.OrderConfiguration.LimitLimitGTC.LimitPrice, resp.SuccessResponse.OrderID)

	d.notify(fmt.Sprintf(
		"✅ DCA %s Placed\n\n"+
			"Pair: %s\n"+
			"Size: %s %s\n"+
			"Limit Price: %s %s\n"+
			"Amount: %.2f %s\n"+
			"Order ID: %s",
		d.side, d.pair,
		resp.OrderConfiguration.LimitLimitGTC.BaseSize, d.pair.Base(),
		resp.OrderConfiguration.LimitLimitGTC.LimitPrice, d.pair.Quote(),
		amount, d.pair.Quote(),
		resp.SuccessResponse.OrderID,
	))

	return nil
}

// record writes the trade to the ledger and rolls the position forward.
// Failures here are logged only; the order is already on the exchange.
func (d *DCAStrategy) record(trade *domain.Trade) {
	if d.store == nil {
		return
	}

	if err := d.store.SaveTrade(trade); err != nil {
		d.logger.Error("Failed to save trade: %v", err)
	}

	if trade.Status != domain.StatusPlaced || trade.Side != string(domain.SideBuy) {
		return
	}

	position, err := d.store.GetPosition(trade.Pair)
	if err != nil {
		d.logger.Error("Failed to load position: %v", err)
		return
	}

	position.TotalQuantity += trade.BaseSize
	position.TotalInvested += trade.QuoteAmount
	if position.TotalQuantity > 0 {
		position.AvgEntryPrice = position.TotalInvested / position.TotalQuantity
	}

	if err := d.store.UpdatePosition(position); err != nil {
		d.logger.Error("Failed to update position: %v", err)
	}
}

func (d *DCAStrategy) notify(message string) {
	if d.notifyFunc != nil {
		d.notifyFunc(message)
	}
}

// Status returns a human-readable summary of the strategy and position
func (d *DCAStrategy) Status(ctx context.Context) (string, error) {
	currentPrice, err := d.exchange.GetPrice(ctx, d.pair)
	if err != nil {
		return "", err
	}

	header := fmt.Sprintf(
		"📊 DCA Status\n\n"+
			"Pair: %s\n"+
			"Side: %s\n"+
			"Amount: %.2f %s\n"+
			"Interval: %s\n"+
			"Current Price: %.2f %s",
		d.pair, d.side, d.amount, d.pair.Quote(), d.interval, currentPrice, d.pair.Quote(),
	)

	if d.store == nil {
		return header, nil
	}

	position, err := d.store.GetPosition(d.pair.String())
	if err != nil {
		return "", err
	}

	currentValue := position.TotalQuantity * currentPrice
	unrealized := currentValue - position.TotalInvested

	return fmt.Sprintf(
		"%s\n\n"+
			"Total Quantity: %.8f %s\n"+
			"Avg Entry Price: %.2f %s\n"+
			"Total Invested: %.2f %s\n"+
			"Current Value: %.2f %s\n"+
			"Unrealized P&L: %.2f %s",
		header,
		position.TotalQuantity, d.pair.Base(),
		position.AvgEntryPrice, d.pair.Quote(),
		position.TotalInvested, d.pair.Quote(),
		currentValue, d.pair.Quote(),
		unrealized, d.pair.Quote(),
	), nil
}
