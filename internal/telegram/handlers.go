package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portfolioBot/internal/metrics"
	"portfolioBot/internal/portfolio"
	"portfolioBot/internal/storage"
	"portfolioBot/internal/taxlots"
)

var (
	reMetrics  = regexp.MustCompile(`^/metrics(?:@[\w_]+)?$`)
	reHoldings = regexp.MustCompile(`^/holdings(?:@[\w_]+)?$`)
	// /hold SYMBOL QTY
	reHold = regexp.MustCompile(`^/hold(?:@[\w_]+)?\s+([A-Za-z0-9\.\-]+)\s+(\S+)$`)
	// /drop SYMBOL
	reDrop = regexp.MustCompile(`^/drop(?:@[\w_]+)?\s+([A-Za-z0-9\.\-]+)$`)
	// /buy|/sell SYMBOL QTY PRICE [FEE]
	reTrade = regexp.MustCompile(`^/(?:buy|sell)(?:@[\w_]+)?(?:\s+.*)?$`)
	reTax   = regexp.MustCompile(`^/tax(?:@[\w_]+)?$`)
	reChart = regexp.MustCompile(`^/chart(?:@[\w_]+)?$`)
	reHelp  = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const handleTimeout = 45 * time.Second

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Portfolio interface {
	ComputeAdvancedMetrics(ctx context.Context, userID int64) metrics.Bundle
	Holdings(ctx context.Context, userID int64) ([]portfolio.Holding, error)
	TaxReport(ctx context.Context, userID int64) (taxlots.Report, error)
	ValueChart(ctx context.Context, userID int64) ([]byte, error)
}

type Ledger interface {
	SetPosition(ctx context.Context, userID int64, symbol string, qty decimal.Decimal) error
	RemovePosition(ctx context.Context, userID int64, symbol string) (bool, error)
	RecordTransaction(ctx context.Context, t storage.Transaction) (storage.Transaction, error)
}

type Handlers struct {
	api       Sender
	portfolio Portfolio
	ledger    Ledger
	log       zerolog.Logger
}

func NewHandlers(api Sender, p Portfolio, ledger Ledger, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:       api,
		portfolio: p,
		ledger:    ledger,
		log:       log.With().Str("component", "telegram_handlers").Logger(),
	}
}

// HandleMessage dispatches one command. The sender's Telegram user ID is the portfolio owner.
func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.From == nil || m.Chat == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	chatID, userID := m.Chat.ID, m.From.ID
	txt := strings.TrimSpace(m.Text)
	switch {
	case reMetrics.MatchString(txt):
		h.reply(chatID, formatBundle(h.portfolio.ComputeAdvancedMetrics(ctx, userID)))

	case reHoldings.MatchString(txt):
		holdings, err := h.portfolio.Holdings(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Int64("user_id", userID).Msg("holdings failed")
			h.reply(chatID, "Couldn’t load holdings, try again later.")
			return
		}
		h.reply(chatID, formatHoldings(holdings))

	case reHold.MatchString(txt):
		g := reHold.FindStringSubmatch(txt)
		h.handleHold(ctx, chatID, userID, g[1], g[2])

	case reDrop.MatchString(txt):
		g := reDrop.FindStringSubmatch(txt)
		h.handleDrop(ctx, chatID, userID, g[1])

	case reTrade.MatchString(txt):
		h.handleTrade(ctx, chatID, userID, txt)

	case reTax.MatchString(txt):
		h.handleTax(ctx, chatID, userID)

	case reChart.MatchString(txt):
		h.handleChart(ctx, chatID, userID)

	case reHelp.MatchString(txt):
		h.handleHelp(chatID)
	}
}

func (h *Handlers) handleHold(ctx context.Context, chatID, userID int64, symbol, qtyArg string) {
	qty, err := decimal.NewFromString(qtyArg)
	if err != nil {
		h.reply(chatID, fmt.Sprintf("Invalid quantity '%s'", qtyArg))
		return
	}
	err = h.ledger.SetPosition(ctx, userID, symbol, qty)
	switch {
	case errors.Is(err, storage.ErrInvalidQuantity):
		h.reply(chatID, "Quantity must be positive. Use /drop SYMBOL to remove a holding.")
	case err != nil:
		h.log.Error().Err(err).Int64("user_id", userID).Str("symbol", symbol).Msg("set position failed")
		h.reply(chatID, "Couldn’t save holding: "+err.Error())
	default:
		h.reply(chatID, fmt.Sprintf("Holding %s set to %s", strings.ToUpper(symbol), qty.String()))
	}
}

func (h *Handlers) handleDrop(ctx context.Context, chatID, userID int64, symbol string) {
	removed, err := h.ledger.RemovePosition(ctx, userID, symbol)
	switch {
	case err != nil:
		h.log.Error().Err(err).Int64("user_id", userID).Str("symbol", symbol).Msg("remove position failed")
		h.reply(chatID, "Couldn’t remove holding: "+err.Error())
	case !removed:
		h.reply(chatID, fmt.Sprintf("You don’t hold %s", strings.ToUpper(symbol)))
	default:
		h.reply(chatID, fmt.Sprintf("Removed %s", strings.ToUpper(symbol)))
	}
}

func (h *Handlers) handleTrade(ctx context.Context, chatID, userID int64, txt string) {
	t, err := ParseTrade(txt)
	if err != nil {
		h.reply(chatID, err.Error())
		return
	}
	rec, err := h.ledger.RecordTransaction(ctx, storage.Transaction{
		UserID:   userID,
		Symbol:   t.Symbol,
		Side:     t.Side,
		Quantity: t.Quantity,
		Price:    t.Price,
		Fee:      t.Fee,
	})
	switch {
	case errors.Is(err, storage.ErrInsufficientHolding):
		h.reply(chatID, "Sell rejected: "+err.Error())
	case err != nil:
		h.log.Error().Err(err).Int64("user_id", userID).Str("symbol", t.Symbol).Msg("record transaction failed")
		h.reply(chatID, "Couldn’t record trade: "+err.Error())
	default:
		h.reply(chatID, fmt.Sprintf("Recorded %s %s %s @ $%s", rec.Side, rec.Quantity.String(), rec.Symbol, rec.Price.StringFixed(2)))
	}
}

func (h *Handlers) handleTax(ctx context.Context, chatID, userID int64) {
	report, err := h.portfolio.TaxReport(ctx, userID)
	switch {
	case errors.Is(err, taxlots.ErrOversold):
		h.reply(chatID, "Tax report unavailable: "+err.Error()+". Record the missing buys with /buy.")
	case err != nil:
		h.log.Error().Err(err).Int64("user_id", userID).Msg("tax report failed")
		h.reply(chatID, "Tax report failed, try again later.")
	default:
		h.reply(chatID, formatTaxReport(report))
	}
}

func (h *Handlers) handleChart(ctx context.Context, chatID, userID int64) {
	img, err := h.portfolio.ValueChart(ctx, userID)
	switch {
	case errors.Is(err, portfolio.ErrNoHoldings):
		h.reply(chatID, "No holdings yet. Add one with /hold SYMBOL QTY")
		return
	case err != nil:
		h.log.Error().Err(err).Int64("user_id", userID).Msg("chart failed")
		h.reply(chatID, "Chart failed: "+err.Error())
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fmt.Sprintf("portfolio_%d.png", userID), Bytes: img})
	photo.Caption = "Portfolio value"
	if _, err := h.api.Send(photo); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("send photo failed")
	}
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /metrics - Advanced risk and performance metrics\n" +
		"- /holdings - Current holdings at the latest price\n" +
		"- /hold SYMBOL QTY - Set the quantity held of SYMBOL\n" +
		"- /drop SYMBOL - Remove SYMBOL from holdings\n" +
		"- /buy SYMBOL QTY PRICE [FEE] - Record a buy and add it to holdings\n" +
		"- /sell SYMBOL QTY PRICE [FEE] - Record a sell and reduce holdings\n" +
		"- /tax - FIFO realized and unrealized gains\n" +
		"- /chart - Portfolio value chart\n" +
		"\nPrices are daily USD closes. Metrics refresh at most every 10 minutes."
	h.reply(chatID, help)
}

func (h *Handlers) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}
