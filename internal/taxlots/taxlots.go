// Package taxlots matches sells against buys in FIFO order and reports
// realized and unrealized gains.
package taxlots

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"portfolioBot/internal/storage"
)

// LongTermAfter is the holding period past which a gain is long-term.
const LongTermAfter = 365 * 24 * time.Hour

var ErrOversold = errors.New("sell exceeds open lots")

// Lot is an open buy. CostPerUnit includes the buy fee.
type Lot struct {
	Symbol      string          `json:"symbol"`
	AcquiredAt  time.Time       `json:"acquiredAt"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"costPerUnit"`
}

// Sale is one sell matched against its lots. Proceeds are net of the sell fee.
type Sale struct {
	Symbol        string          `json:"symbol"`
	SoldAt        time.Time       `json:"soldAt"`
	Quantity      decimal.Decimal `json:"quantity"`
	Proceeds      decimal.Decimal `json:"proceeds"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	ShortTermGain decimal.Decimal `json:"shortTermGain"`
	LongTermGain  decimal.Decimal `json:"longTermGain"`
}

func (s Sale) Gain() decimal.Decimal { return s.ShortTermGain.Add(s.LongTermGain) }

type OpenLot struct {
	Lot
	Priced         bool            `json:"priced"`
	MarketValue    decimal.Decimal `json:"marketValue"`
	UnrealizedGain decimal.Decimal `json:"unrealizedGain"`
	LongTerm       bool            `json:"longTerm"`
}

type Report struct {
	Sales             []Sale          `json:"sales"`
	OpenLots          []OpenLot       `json:"openLots"`
	RealizedShortTerm decimal.Decimal `json:"realizedShortTerm"`
	RealizedLongTerm  decimal.Decimal `json:"realizedLongTerm"`
	Unrealized        decimal.Decimal `json:"unrealized"`
}

func (r Report) Realized() decimal.Decimal { return r.RealizedShortTerm.Add(r.RealizedLongTerm) }

// Build replays txs oldest first. prices maps upper-case symbols to the
// current unit price; open lots of unpriced symbols are reported with
// Priced false and no unrealized gain. asOf decides whether open lots are
// long-term.
func Build(txs []storage.Transaction, prices map[string]decimal.Decimal, asOf time.Time) (Report, error) {
	ordered := make([]storage.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].At.Before(ordered[j].At) })

	lots := map[string][]Lot{}
	var symbols []string
	report := Report{Sales: []Sale{}, OpenLots: []OpenLot{}}

	for _, tx := range ordered {
		sym := strings.ToUpper(tx.Symbol)
		if !tx.Quantity.IsPositive() {
			continue
		}
		switch tx.Side {
		case storage.Buy:
			if _, seen := lots[sym]; !seen {
				symbols = append(symbols, sym)
			}
			cost := tx.Quantity.Mul(tx.Price).Add(tx.Fee)
			lots[sym] = append(lots[sym], Lot{
				Symbol:      sym,
				AcquiredAt:  tx.At,
				Quantity:    tx.Quantity,
				CostPerUnit: cost.Div(tx.Quantity),
			})
		case storage.Sell:
			sale, rest, err := match(sym, tx, lots[sym])
			if err != nil {
				return Report{}, err
			}
			lots[sym] = rest
			report.Sales = append(report.Sales, sale)
			report.RealizedShortTerm = report.RealizedShortTerm.Add(sale.ShortTermGain)
			report.RealizedLongTerm = report.RealizedLongTerm.Add(sale.LongTermGain)
		}
	}

	sort.Strings(symbols)
	for _, sym := range symbols {
		price, priced := prices[sym]
		for _, lot := range lots[sym] {
			open := OpenLot{Lot: lot, Priced: priced, LongTerm: asOf.Sub(lot.AcquiredAt) > LongTermAfter}
			if priced {
				open.MarketValue = lot.Quantity.Mul(price)
				open.UnrealizedGain = open.MarketValue.Sub(lot.Quantity.Mul(lot.CostPerUnit)).Round(2)
				report.Unrealized = report.Unrealized.Add(open.UnrealizedGain)
			}
			report.OpenLots = append(report.OpenLots, open)
		}
	}
	return report, nil
}

// match consumes lots FIFO for one sell and returns the remaining lots.
func match(sym string, tx storage.Transaction, lots []Lot) (Sale, []Lot, error) {
	available := decimal.Zero
	for _, l := range lots {
		available = available.Add(l.Quantity)
	}
	if available.LessThan(tx.Quantity) {
		return Sale{}, nil, fmt.Errorf("%w: %s selling %s on %s, open %s",
			ErrOversold, sym, tx.Quantity, tx.At.Format("2006-01-02"), available)
	}

	netPerUnit := tx.Price.Sub(tx.Fee.Div(tx.Quantity))
	sale := Sale{
		Symbol:   sym,
		SoldAt:   tx.At,
		Quantity: tx.Quantity,
		Proceeds: tx.Quantity.Mul(tx.Price).Sub(tx.Fee),
	}

	remaining := tx.Quantity
	rest := make([]Lot, 0, len(lots))
	for _, l := range lots {
		if remaining.IsZero() {
			rest = append(rest, l)
			continue
		}
		take := decimal.Min(l.Quantity, remaining)
		remaining = remaining.Sub(take)

		basis := take.Mul(l.CostPerUnit)
		gain := take.Mul(netPerUnit).Sub(basis)
		sale.CostBasis = sale.CostBasis.Add(basis)
		if tx.At.Sub(l.AcquiredAt) > LongTermAfter {
			sale.LongTermGain = sale.LongTermGain.Add(gain)
		} else {
			sale.ShortTermGain = sale.ShortTermGain.Add(gain)
		}

		if left := l.Quantity.Sub(take); left.IsPositive() {
			l.Quantity = left
			rest = append(rest, l)
		}
	}

	sale.CostBasis = sale.CostBasis.Round(2)
	sale.ShortTermGain = sale.ShortTermGain.Round(2)
	sale.LongTermGain = sale.LongTermGain.Round(2)
	return sale, rest, nil
}
