package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBot/internal/metrics"
	"portfolioBot/internal/portfolio"
	"portfolioBot/internal/storage"
	"portfolioBot/internal/taxlots"
)

type fakePortfolio struct {
	holdings []portfolio.Holding
	taxErr   error
	chartErr error
}

func (f *fakePortfolio) ComputeAdvancedMetrics(_ context.Context, userID int64) metrics.Bundle {
	b := metrics.Defaults()
	b.UserID = userID
	b.ComputedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return b
}

func (f *fakePortfolio) Holdings(context.Context, int64) ([]portfolio.Holding, error) {
	return f.holdings, nil
}

func (f *fakePortfolio) TaxReport(context.Context, int64) (taxlots.Report, error) {
	if f.taxErr != nil {
		return taxlots.Report{}, f.taxErr
	}
	return taxlots.Report{RealizedShortTerm: decimal.NewFromInt(100), Sales: []taxlots.Sale{}, OpenLots: []taxlots.OpenLot{}}, nil
}

func (f *fakePortfolio) ValueChart(context.Context, int64) ([]byte, error) {
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	return []byte("\x89PNG"), nil
}

type fakePositions struct {
	set     map[string]decimal.Decimal
	removed bool
}

func (f *fakePositions) SetPosition(_ context.Context, _ int64, symbol string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return storage.ErrInvalidQuantity
	}
	f.set[symbol] = qty
	return nil
}

func (f *fakePositions) RemovePosition(context.Context, int64, string) (bool, error) {
	return f.removed, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestServer(p *fakePortfolio, pos *fakePositions, db Pinger) *Server {
	return New(Config{
		Port:      "0",
		Log:       zerolog.Nop(),
		Portfolio: p,
		Positions: pos,
		DB:        db,
		Registry:  prometheus.NewRegistry(),
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakePortfolio{}, &fakePositions{}, nil)

	rec := do(t, s, http.MethodGet, "/users/42/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42.0, body["userId"])
	assert.Equal(t, 1.0, body["betaCoefficient"])
	assert.Equal(t, 100.0, body["concentrationIndex"])
	assert.Equal(t, map[string]any{"low": 20.0, "medium": 50.0, "high": 30.0}, body["riskDistribution"])
	assert.Equal(t, []any{}, body["performanceAttribution"])
}

func TestMetricsEndpoint_BadUserID(t *testing.T) {
	s := newTestServer(&fakePortfolio{}, &fakePositions{}, nil)
	for _, path := range []string{"/users/abc/metrics", "/users/-1/metrics"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestHoldingsEndpoint(t *testing.T) {
	p := &fakePortfolio{holdings: []portfolio.Holding{
		{Symbol: "BTC", Quantity: decimal.RequireFromString("0.5"), CurrentPrice: decimal.NewFromInt(60000)},
		{Symbol: "ETH", Quantity: decimal.NewFromInt(2), CurrentPrice: decimal.NewFromInt(3000)},
	}}
	s := newTestServer(p, &fakePositions{}, nil)

	rec := do(t, s, http.MethodGet, "/users/1/holdings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Holdings   []portfolio.Holding `json:"holdings"`
		TotalValue decimal.Decimal     `json:"totalValue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Holdings, 2)
	assert.True(t, decimal.NewFromInt(36000).Equal(body.TotalValue))
}

func TestSetHolding(t *testing.T) {
	pos := &fakePositions{set: map[string]decimal.Decimal{}}
	s := newTestServer(&fakePortfolio{}, pos, nil)

	rec := do(t, s, http.MethodPut, "/users/1/holdings/sol", `{"quantity":"12.5"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, decimal.RequireFromString("12.5").Equal(pos.set["sol"]))

	rec = do(t, s, http.MethodPut, "/users/1/holdings/sol", `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/users/1/holdings/sol", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveHolding(t *testing.T) {
	s := newTestServer(&fakePortfolio{}, &fakePositions{removed: true}, nil)
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/users/1/holdings/BTC", "").Code)

	s = newTestServer(&fakePortfolio{}, &fakePositions{removed: false}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/users/1/holdings/BTC", "").Code)
}

func TestTaxReportEndpoint(t *testing.T) {
	s := newTestServer(&fakePortfolio{}, &fakePositions{}, nil)
	rec := do(t, s, http.MethodGet, "/users/1/tax-report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"realized":"100"`)

	s = newTestServer(&fakePortfolio{taxErr: taxlots.ErrOversold}, &fakePositions{}, nil)
	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodGet, "/users/1/tax-report", "").Code)
}

func TestChartEndpoint(t *testing.T) {
	s := newTestServer(&fakePortfolio{}, &fakePositions{}, nil)
	rec := do(t, s, http.MethodGet, "/users/1/chart.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	s = newTestServer(&fakePortfolio{chartErr: portfolio.ErrNoHoldings}, &fakePositions{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/users/1/chart.png", "").Code)

	s = newTestServer(&fakePortfolio{chartErr: errors.New("yahoo down")}, &fakePositions{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/users/1/chart.png", "").Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakePortfolio{}, &fakePositions{}, pinger{})
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)

	s = newTestServer(&fakePortfolio{}, &fakePositions{}, pinger{err: errors.New("closed")})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/healthz", "").Code)
}

func TestPrometheusEndpoint(t *testing.T) {
	s := newTestServer(&fakePortfolio{}, &fakePositions{}, nil)
	do(t, s, http.MethodGet, "/users/1/metrics", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portfoliobot_http_request_duration_seconds_count{method="GET",route="/users/{userID}/metrics",status="200"} 1`)
}

func TestWebhookRoute(t *testing.T) {
	called := false
	s := New(Config{
		Log:       zerolog.Nop(),
		Portfolio: &fakePortfolio{},
		Positions: &fakePositions{},
		Registry:  prometheus.NewRegistry(),
		Webhook:   func(w http.ResponseWriter, r *http.Request) { called = true },
	})
	rec := do(t, s, http.MethodPost, "/telegram/webhook", "{}")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
