package telegram

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBot/internal/storage"
)

func TestParseTrade(t *testing.T) {
	got, err := ParseTrade("/buy btc 0.5 60000 12.5")
	require.NoError(t, err)
	assert.Equal(t, storage.Buy, got.Side)
	assert.Equal(t, "BTC", got.Symbol)
	assert.True(t, decimal.RequireFromString("0.5").Equal(got.Quantity))
	assert.True(t, decimal.NewFromInt(60000).Equal(got.Price))
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.Fee))

	got, err = ParseTrade("/sell@portfolio_bot ETH 1 3000")
	require.NoError(t, err)
	assert.Equal(t, storage.Sell, got.Side)
	assert.True(t, got.Fee.IsZero())
}

func TestParseTrade_Errors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr string
	}{
		{"", "empty command"},
		{"/hold BTC 1", "unknown trade command"},
		{"/buy BTC 1", "usage"},
		{"/buy BTC 1 2 3 4", "usage"},
		{"/buy BTC x 2", "invalid quantity"},
		{"/buy BTC 0 2", "quantity must be positive"},
		{"/buy BTC 1 -2", "price must not be negative"},
		{"/buy BTC 1 2 fee", "invalid fee"},
		{"/buy BTC 1 2 -1", "fee must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseTrade(tt.in)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
