package telegram

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"portfolioBot/internal/metrics"
	"portfolioBot/internal/portfolio"
	"portfolioBot/internal/taxlots"
)

func formatBundle(b metrics.Bundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Advanced metrics (computed %s)\n\n", b.ComputedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "Sharpe ratio: %.2f\n", b.SharpeRatio)
	fmt.Fprintf(&sb, "Sortino ratio: %.2f\n", b.SortinoRatio)
	fmt.Fprintf(&sb, "Beta: %.2f\n", b.BetaCoefficient)
	fmt.Fprintf(&sb, "Volatility: %.2f%%\n", b.Volatility)
	fmt.Fprintf(&sb, "Max drawdown: %.2f%%\n", b.MaxDrawdown)
	fmt.Fprintf(&sb, "VaR (95%%, 1d): %.2f%%\n", b.ValueAtRisk)
	fmt.Fprintf(&sb, "Diversification: %.4f\n", b.DiversificationRatio)
	fmt.Fprintf(&sb, "Concentration: %.2f\n", b.ConcentrationIndex)
	fmt.Fprintf(&sb, "\nRisk: low %.2f%% | medium %.2f%% | high %.2f%%\n",
		b.RiskDistribution.Low, b.RiskDistribution.Medium, b.RiskDistribution.High)

	if len(b.PerformanceAttribution) > 0 {
		sb.WriteString("\nTop contributors (24h)\n")
		for _, a := range b.PerformanceAttribution {
			fmt.Fprintf(&sb, "%s  %.2f%% × %+.2f%% = %+.4f\n", a.Symbol, a.Weight, a.Return, a.Contribution)
		}
	}
	return sb.String()
}

func formatHoldings(holdings []portfolio.Holding) string {
	if len(holdings) == 0 {
		return "No holdings yet. Add one with /hold SYMBOL QTY"
	}
	var sb strings.Builder
	total := decimal.Zero
	sb.WriteString("Holdings\n\n")
	for _, h := range holdings {
		v := h.Value()
		total = total.Add(v)
		fmt.Fprintf(&sb, "%s  %s @ $%s = $%s (%s%%)\n",
			h.Symbol, h.Quantity.String(), h.CurrentPrice.StringFixed(2), v.StringFixed(2), h.PriceChange24h.StringFixed(2))
	}
	fmt.Fprintf(&sb, "\nTotal: $%s", total.StringFixed(2))
	return sb.String()
}

func formatTaxReport(r taxlots.Report) string {
	var sb strings.Builder
	sb.WriteString("Tax report (FIFO)\n\n")
	fmt.Fprintf(&sb, "Realized: $%s (short-term $%s, long-term $%s)\n",
		r.Realized().StringFixed(2), r.RealizedShortTerm.StringFixed(2), r.RealizedLongTerm.StringFixed(2))
	fmt.Fprintf(&sb, "Unrealized: $%s\n", r.Unrealized.StringFixed(2))
	if len(r.OpenLots) > 0 {
		sb.WriteString("\nOpen lots\n")
		for _, l := range r.OpenLots {
			term := "short"
			if l.LongTerm {
				term = "long"
			}
			fmt.Fprintf(&sb, "%s  %s since %s @ $%s (%s-term)\n",
				l.Symbol, l.Quantity.String(), l.AcquiredAt.Format("2006-01-02"), l.CostPerUnit.StringFixed(2), term)
		}
	}
	return sb.String()
}
