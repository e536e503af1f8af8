package telegram

import (
	"fmt"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"tradecraft/pkg/logger"
)

// Notifier pushes trade lifecycle messages to a single chat.
// Best-effort: a failed send is logged, never propagated.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewNotifier creates a Telegram notifier
func NewNotifier(botToken string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}

	return &Notifier{
		bot:    bot,
		chatID: chatID,
		log:    logger.Get().With("component", "telegram_notifier"),
	}, nil
}

// NotifyTradeOpened announces a new position.
func (n *Notifier) NotifyTradeOpened(symbol, side string, qty, entryPrice decimal.Decimal, leverage int, confidence float64) {
	notional, _ := qty.Mul(entryPrice).Float64()
	text := fmt.Sprintf(
		"\U0001F4C8 *Trade opened*\n%s %s\nqty: %s @ %s (%s)\nleverage: %dx\nconfidence: %.2f",
		symbol, side, qty.String(), entryPrice.String(), humanize.Commaf(notional), leverage, confidence,
	)
	n.send(text)
}

// NotifyTradeClosed announces a reconciled close with its PnL.
func (n *Notifier) NotifyTradeClosed(symbol, side, reason string, closePrice, pnl decimal.Decimal) {
	emoji := "✅"
	if pnl.IsNegative() {
		emoji = "\U0001F534"
	}
	text := fmt.Sprintf(
		"%s *Position closed*\n%s %s\nreason: %s\nclose: %s\npnl: %s",
		emoji, symbol, side, reason, closePrice.String(), pnl.StringFixed(2),
	)
	n.send(text)
}

// NotifyExecutionFailure announces an entry order that was rejected.
func (n *Notifier) NotifyExecutionFailure(symbol, side, reason string) {
	n.send(fmt.Sprintf("⚠️ *Execution failed*\n%s %s\n%s", symbol, side, reason))
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warnf("Failed to send telegram notification: %v", err)
	}
}
