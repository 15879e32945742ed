package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kirillm/coinbase-dca/internal/strategy"
	"github.com/kirillm/coinbase-dca/pkg/utils"
)

// Bot reports DCA activity to a single Telegram chat and accepts a few
// manual commands from it
type Bot struct {
	api         *tgbotapi.BotAPI
	chatID      int64
	logger      *utils.Logger
	dcaStrategy *strategy.DCAStrategy
	store       strategy.TradeStore // nil disables /history
	pair        string
}

func NewBot(
	token string,
	chatID int64,
	logger *utils.Logger,
	dcaStrategy *strategy.DCAStrategy,
	store strategy.TradeStore,
	pair string,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot authorized: @%s", bot.Self.UserName)

	return &Bot{
		api:         bot,
		chatID:      chatID,
		logger:      logger,
		dcaStrategy: dcaStrategy,
		store:       store,
		pair:        pair,
	}, nil
}

// Start consumes updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.SendMessage("🤖 Coinbase DCA bot started!\nUse /help to see available commands.")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			if update.Message.Chat.ID != b.chatID {
				b.logger.Warn("Unauthorized access attempt from chat ID: %d", update.Message.Chat.ID)
				continue
			}
			b.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		}
	}
}

// SendMessage posts a message to the configured chat
func (b *Bot) SendMessage(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send telegram message: %v", err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	b.logger.Info("Received command: %s", message.Text)

	switch message.Command() {
	case "start", "help":
		b.sendHelp()
	case "status":
		b.handleStatus(ctx)
	case "history":
		b.handleHistory()
	case "buy":
		b.handleBuy(ctx, message.CommandArguments())
	default:
		b.SendMessage("Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) sendHelp() {
	b.SendMessage(
		"Available commands:\n\n" +
			"/status — strategy and position summary\n" +
			"/history — recent trades\n" +
			"/buy [amount] — place a DCA order now\n" +
			"/help — this message",
	)
}

func (b *Bot) handleStatus(ctx context.Context) {
	status, err := b.dcaStrategy.Status(ctx)
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to get status: %v", err))
		return
	}
	b.SendMessage(status)
}

func (b *Bot) handleHistory() {
	if b.store == nil {
		b.SendMessage("Trade ledger is disabled.")
		return
	}

	trades, err := b.store.GetRecentTrades(b.pair, 10)
	if err != nil {
		b.SendMessage(fmt.Sprintf("❌ Failed to get history: %v", err))
		return
	}
	b.SendMessage(FormatTradeHistory(trades))
}

func (b *Bot) handleBuy(ctx context.Context, args string) {
	var amount float64
	if trimmed := strings.TrimSpace(args); trimmed != "" {
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || parsed <= 0 {
			b.SendMessage(fmt.Sprintf("Invalid amount %q. Usage: /buy [amount]", trimmed))
			return
		}
		amount = parsed
	}

	if err := b.dcaStrategy.ExecuteManual(ctx, amount); err != nil {
		b.SendMessage(fmt.Sprintf("❌ Manual buy failed: %v", err))
	}
}
