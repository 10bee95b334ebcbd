package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBot/internal/storage"
)

type fakePositions struct {
	positions []storage.Position
	err       error
}

func (f fakePositions) Positions(context.Context, int64) ([]storage.Position, error) {
	return f.positions, f.err
}

func TestQuotedHoldings(t *testing.T) {
	positions := fakePositions{positions: []storage.Position{
		{Symbol: "BTC", Quantity: d("0.5")},
		{Symbol: "DOGE", Quantity: d("100")},
		{Symbol: "ETH", Quantity: d("2")},
	}}
	prices := staticHistory{
		"BTC": {50000, 55000},
		"ETH": {2000},
	}

	got, err := NewQuotedHoldings(positions, prices, 30, zerolog.Nop()).Holdings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2, "unpriced DOGE is skipped")

	assert.Equal(t, "BTC", got[0].Symbol)
	assert.True(t, d("55000").Equal(got[0].CurrentPrice))
	assert.True(t, d("10").Equal(got[0].PriceChange24h))
	assert.True(t, d("27500").Equal(got[0].Value()))

	assert.Equal(t, "ETH", got[1].Symbol)
	assert.True(t, got[1].PriceChange24h.IsZero())
}

func TestQuotedHoldings_PositionsError(t *testing.T) {
	_, err := NewQuotedHoldings(fakePositions{err: errors.New("locked")}, staticHistory{}, 30, zerolog.Nop()).
		Holdings(context.Background(), 1)
	assert.ErrorContains(t, err, "load positions")
}
