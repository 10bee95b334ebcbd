package metrics

import "time"

// Bundle is the advanced metrics record returned for one user.
type Bundle struct {
	UserID     int64     `json:"userId" msgpack:"userId"`
	ComputedAt time.Time `json:"computedAt" msgpack:"computedAt"`

	SharpeRatio          float64 `json:"sharpeRatio" msgpack:"sharpeRatio"`
	BetaCoefficient      float64 `json:"betaCoefficient" msgpack:"betaCoefficient"`
	Volatility           float64 `json:"volatility" msgpack:"volatility"`
	MaxDrawdown          float64 `json:"maxDrawdown" msgpack:"maxDrawdown"`
	SortinoRatio         float64 `json:"sortinoRatio" msgpack:"sortinoRatio"`
	ValueAtRisk          float64 `json:"valueAtRisk" msgpack:"valueAtRisk"`
	DiversificationRatio float64 `json:"diversificationRatio" msgpack:"diversificationRatio"`
	ConcentrationIndex   float64 `json:"concentrationIndex" msgpack:"concentrationIndex"`

	RiskDistribution       RiskDistribution `json:"riskDistribution" msgpack:"riskDistribution"`
	PerformanceAttribution []Attribution    `json:"performanceAttribution" msgpack:"performanceAttribution"`
}

// RiskDistribution is the share of portfolio value per risk bucket, in percent.
type RiskDistribution struct {
	Low    float64 `json:"low" msgpack:"low"`
	Medium float64 `json:"medium" msgpack:"medium"`
	High   float64 `json:"high" msgpack:"high"`
}

// Attribution is one holding's contribution to the last 24h move.
type Attribution struct {
	Symbol       string  `json:"symbol" msgpack:"symbol"`
	Weight       float64 `json:"weight" msgpack:"weight"`             // percent of portfolio value
	Return       float64 `json:"return" msgpack:"return"`             // 24h change, percent
	Contribution float64 `json:"contribution" msgpack:"contribution"` // percentage points
}

// Fallback values used when a metric has too little data or fails.
const (
	FallbackSharpe          = 0.0
	FallbackBeta            = 1.0
	FallbackVolatility      = 25.0
	FallbackMaxDrawdown     = 15.0
	FallbackSortino         = 0.0
	FallbackSortinoNoLosses = 2.0
	FallbackVaR             = 8.0
	FallbackDiversification = 0.5
	SingleHoldingDivRatio   = 0.3
	FallbackConcentration   = 100.0
)

// DefaultRiskDistribution is reported when portfolio value is not positive.
var DefaultRiskDistribution = RiskDistribution{Low: 20, Medium: 50, High: 30}

// Defaults returns the bundle served when holdings or prices are unavailable.
func Defaults() Bundle {
	return Bundle{
		SharpeRatio:            FallbackSharpe,
		BetaCoefficient:        FallbackBeta,
		Volatility:             FallbackVolatility,
		MaxDrawdown:            FallbackMaxDrawdown,
		SortinoRatio:           FallbackSortino,
		ValueAtRisk:            FallbackVaR,
		DiversificationRatio:   FallbackDiversification,
		ConcentrationIndex:     FallbackConcentration,
		RiskDistribution:       DefaultRiskDistribution,
		PerformanceAttribution: []Attribution{},
	}
}
