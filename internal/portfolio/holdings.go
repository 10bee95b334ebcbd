package portfolio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portfolioBot/internal/storage"
)

// Holding is one priced position. PriceChange24h is in percent.
type Holding struct {
	Symbol         string          `json:"symbol"`
	Quantity       decimal.Decimal `json:"quantity"`
	CurrentPrice   decimal.Decimal `json:"currentPrice"`
	PriceChange24h decimal.Decimal `json:"priceChange24h"`
}

func (h Holding) Value() decimal.Decimal { return h.Quantity.Mul(h.CurrentPrice) }

type HoldingsProvider interface {
	Holdings(ctx context.Context, userID int64) ([]Holding, error)
}

// HistoryProvider returns daily closes for symbol, oldest first.
type HistoryProvider interface {
	History(ctx context.Context, symbol string, days int) ([]float64, error)
}

type PositionStore interface {
	Positions(ctx context.Context, userID int64) ([]storage.Position, error)
}

// QuotedHoldings prices stored positions with the last daily close.
type QuotedHoldings struct {
	positions PositionStore
	prices    HistoryProvider
	days      int
	log       zerolog.Logger
}

func NewQuotedHoldings(positions PositionStore, prices HistoryProvider, days int, log zerolog.Logger) *QuotedHoldings {
	return &QuotedHoldings{
		positions: positions,
		prices:    prices,
		days:      days,
		log:       log.With().Str("component", "quoted_holdings").Logger(),
	}
}

// Holdings skips positions that cannot be priced.
func (q *QuotedHoldings) Holdings(ctx context.Context, userID int64) ([]Holding, error) {
	positions, err := q.positions.Positions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}

	out := make([]Holding, 0, len(positions))
	for _, p := range positions {
		closes, err := q.prices.History(ctx, p.Symbol, q.days)
		if err != nil || len(closes) == 0 {
			q.log.Warn().Err(err).Str("symbol", p.Symbol).Int64("user_id", userID).Msg("no price, skipping holding")
			continue
		}
		out = append(out, Holding{
			Symbol:         p.Symbol,
			Quantity:       p.Quantity,
			CurrentPrice:   decimal.NewFromFloat(closes[len(closes)-1]),
			PriceChange24h: dailyChange(closes),
		})
	}
	return out, nil
}

// dailyChange is the last close against the one before, in percent.
func dailyChange(closes []float64) decimal.Decimal {
	if len(closes) < 2 || closes[len(closes)-2] == 0 {
		return decimal.Zero
	}
	prev := decimal.NewFromFloat(closes[len(closes)-2])
	last := decimal.NewFromFloat(closes[len(closes)-1])
	return last.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
}
