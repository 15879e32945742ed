package telegram

import (
	"fmt"
	"strings"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// FormatTradeHistory renders recent trades as a chat message
func FormatTradeHistory(trades []domain.Trade) string {
	if len(trades) == 0 {
		return "No trades yet."
	}

	var sb strings.Builder
	sb.WriteString("📜 Recent Trades\n")
	for _, trade := range trades {
		sb.WriteString(fmt.Sprintf(
			"\n%s %s %s %.8f @ %.2f (%s)",
			trade.CreatedAt.Format("2006-01-02 15:04"),
			trade.Side,
			trade.Pair,
			trade.BaseSize,
			trade.LimitPrice,
			statusEmoji(trade.Status),
		))
	}
	return sb.String()
}

func statusEmoji(status string) string {
	switch status {
	case domain.StatusPlaced, domain.StatusFilled:
		return "✅ " + status
	case domain.StatusRejected, domain.StatusCancelled:
		return "❌ " + status
	}
	return status
}
