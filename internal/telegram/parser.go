package telegram

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"portfolioBot/internal/storage"
)

// Trade is a parsed /buy or /sell command.
type Trade struct {
	Side     storage.Side
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
}

// ParseTrade parses a trade command string
// Format: /buy SYMBOL QTY PRICE [FEE]
func ParseTrade(input string) (Trade, error) {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return Trade{}, fmt.Errorf("empty command")
	}

	var t Trade
	cmd := strings.ToLower(parts[0])
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/buy":
		t.Side = storage.Buy
	case "/sell":
		t.Side = storage.Sell
	default:
		return Trade{}, fmt.Errorf("unknown trade command %s", parts[0])
	}

	args := parts[1:]
	if len(args) < 3 || len(args) > 4 {
		return Trade{}, fmt.Errorf("usage: %s SYMBOL QTY PRICE [FEE]", cmd)
	}

	t.Symbol = strings.ToUpper(args[0])
	var err error
	if t.Quantity, err = decimal.NewFromString(args[1]); err != nil {
		return Trade{}, fmt.Errorf("invalid quantity '%s': %w", args[1], err)
	}
	if !t.Quantity.IsPositive() {
		return Trade{}, fmt.Errorf("quantity must be positive, got %s", args[1])
	}
	if t.Price, err = decimal.NewFromString(args[2]); err != nil {
		return Trade{}, fmt.Errorf("invalid price '%s': %w", args[2], err)
	}
	if t.Price.IsNegative() {
		return Trade{}, fmt.Errorf("price must not be negative, got %s", args[2])
	}
	if len(args) == 4 {
		if t.Fee, err = decimal.NewFromString(args[3]); err != nil {
			return Trade{}, fmt.Errorf("invalid fee '%s': %w", args[3], err)
		}
		if t.Fee.IsNegative() {
			return Trade{}, fmt.Errorf("fee must not be negative, got %s", args[3])
		}
	}
	return t, nil
}
