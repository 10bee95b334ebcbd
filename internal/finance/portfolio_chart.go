package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"

	"portfolioBot/internal/cache"
)

// ValueChart is a rendered portfolio value series. Key identifies it in the chart cache.
type ValueChart struct {
	Key      string
	Title    string
	Subtitle string
	Values   []float64
	End      time.Time
}

// Charter renders value charts and keeps the PNGs for a minute.
type Charter struct {
	cache cache.Store
	loc   *time.Location
	log   zerolog.Logger
}

// NewCharter labels the x axis in the named zone, falling back to UTC if tzdata is missing.
func NewCharter(store cache.Store, zone string, log zerolog.Logger) *Charter {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return &Charter{cache: store, loc: loc, log: log.With().Str("component", "charter").Logger()}
}

// Render draws one point per day ending at vc.End.
func (c *Charter) Render(ctx context.Context, vc ValueChart) ([]byte, error) {
	if len(vc.Values) < 2 {
		return nil, fmt.Errorf("not enough points to chart: %d", len(vc.Values))
	}
	cacheKey := "chart:" + vc.Key
	if img, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
		return img, nil
	}

	end := vc.End.In(c.loc)
	n := len(vc.Values)
	xLabels := make([]string, n)
	for i := range vc.Values {
		day := end.AddDate(0, 0, -(n - 1 - i))
		if n <= 60 {
			xLabels[i] = day.Format("Jan 02")
		} else {
			xLabels[i] = day.Format("Jan '06")
		}
	}

	minVal, maxVal := vc.Values[0], vc.Values[0]
	for _, v := range vc.Values {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if n <= 30 {
		splitNum = max(n/3, 3)
	}

	title := vc.Title
	if vc.Subtitle != "" {
		title += "\n" + vc.Subtitle
	}

	p, err := charts.LineRender(
		[][]float64{vc.Values},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	if err := c.cache.Set(ctx, cacheKey, buf, chartCacheTTL); err != nil {
		c.log.Debug().Err(err).Str("key", cacheKey).Msg("chart cache set failed")
	}
	return buf, nil
}
