package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	errNoData      = errors.New("no data")
	errRateLimited = errors.New("rate limited")
)

// fetchSeries fetches timestamps and close prices for a single symbol using the given interval and range.
// Each attempt walks every base URL; the v7 spark endpoint is the fallback when the chart endpoint keeps failing.
func (y *Yahoo) fetchSeries(ctx context.Context, symbol, interval, rangeParam string) ([]int64, []float64, error) {
	var chart chartResponse
	err := y.retry(ctx, func(base string) error {
		url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&includePrePost=false&events=div,splits", base, symbol, rangeParam, interval)
		return y.getJSON(ctx, url, symbol, &chart)
	})
	if err == nil {
		if cur := chart.currency(); cur != "" && cur != "USD" {
			y.log.Warn().Str("symbol", symbol).Str("currency", cur).Msg("closes are not quoted in USD")
		}
		ts, cl, err := chart.closes()
		if err != nil {
			return nil, nil, err
		}
		ts, cl = cleanSeries(ts, cl)
		return ts, cl, nil
	}
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	y.log.Debug().Err(err).Str("symbol", symbol).Msg("chart endpoint failed, trying spark")
	var spark sparkResponse
	sparkErr := y.retry(ctx, func(base string) error {
		url := fmt.Sprintf("%s/v7/finance/spark?symbols=%s&range=%s&interval=%s", base, symbol, rangeParam, interval)
		if err := y.getJSON(ctx, url, symbol, &spark); err != nil {
			return err
		}
		_, _, err := spark.closes()
		return err
	})
	if sparkErr != nil {
		return nil, nil, fmt.Errorf("chart: %v; spark: %w", err, sparkErr)
	}
	ts, cl, _ := spark.closes()
	ts, cl = cleanSeries(ts, cl)
	return ts, cl, nil
}

func (y *Yahoo) retry(ctx context.Context, fn func(base string) error) error {
	var lastErr error
	for attempt := 0; attempt <= len(y.backoffs); attempt++ {
		for _, base := range y.baseURLs {
			if lastErr = fn(base); lastErr == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if attempt < len(y.backoffs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(y.backoffs[attempt]):
			}
		}
	}
	return lastErr
}

func (y *Yahoo) getJSON(ctx context.Context, url, symbol string, out any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(symbol)))

	resp, err := y.client.Do(req)
	if err != nil {
		return err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read yahoo response: %w", readErr)
	}
	text := string(body)
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(text, "Edge: Too Many Requests") {
		return fmt.Errorf("%w: yahoo returned 429", errRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo returned %d: %s", resp.StatusCode, preview(text))
	}
	if strings.HasPrefix(text, "<") || strings.HasPrefix(text, "Edge:") {
		return fmt.Errorf("yahoo returned non-json body: %s", preview(text))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(text))
	}
	return nil
}

func preview(s string) string {
	if len(s) > previewLen {
		return s[:previewLen]
	}
	return s
}
