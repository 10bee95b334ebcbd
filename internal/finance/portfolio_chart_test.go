package finance

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBot/internal/cache"
)

func TestCharter_RenderCaches(t *testing.T) {
	store := cache.NewMemory()
	c := NewCharter(store, "UTC", zerolog.Nop())
	vc := ValueChart{
		Key:      "user-1",
		Title:    "Portfolio value",
		Subtitle: "Sharpe: 1.20 | Vol: 40.00%",
		Values:   []float64{100, 102, 101, 105, 107},
		End:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	img, err := c.Render(context.Background(), vc)
	require.NoError(t, err)
	assert.NotEmpty(t, img)
	assert.Equal(t, 1, store.Len())

	vc.Values = []float64{1, 2}
	again, err := c.Render(context.Background(), vc)
	require.NoError(t, err)
	assert.Equal(t, img, again, "second render within ttl is served from cache")
}

func TestCharter_RenderNeedsTwoPoints(t *testing.T) {
	c := NewCharter(cache.NewMemory(), "UTC", zerolog.Nop())
	_, err := c.Render(context.Background(), ValueChart{Key: "k", Values: []float64{1}})
	assert.Error(t, err)
}
