package models

import "time"

// RegimeLabel classifies the prevailing market regime.
type RegimeLabel string

const (
	RegimeHighVolatility RegimeLabel = "HIGH_VOLATILITY"
	RegimeLowVolatility  RegimeLabel = "LOW_VOLATILITY"
	RegimeTrending       RegimeLabel = "TRENDING"
	RegimeMeanReverting  RegimeLabel = "MEAN_REVERTING"
	RegimeNormal         RegimeLabel = "NORMAL"
	RegimeUnknown        RegimeLabel = "UNKNOWN"
)

// RiskMetrics holds tail-risk and risk-adjusted-return statistics for one
// series. An all-zero value means "insufficient data", not zero risk.
type RiskMetrics struct {
	VaR95             float64 `json:"var_95"`
	VaR99             float64 `json:"var_99"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	CalmarRatio       float64 `json:"calmar_ratio"`
	Beta              float64 `json:"beta"`
	Alpha             float64 `json:"alpha"`
}

// MarketRegime is the output of regime detection over one series.
type MarketRegime struct {
	Regime        RegimeLabel `json:"regime"`
	Volatility    float64     `json:"volatility"`
	TrendStrength float64     `json:"trend_strength"`
	MeanReversion float64     `json:"mean_reversion"`
}

// CorrelationResult relates an asset's returns to a benchmark. A nil
// *CorrelationResult means the relationship could not be measured, which
// is distinct from measuring no relationship.
type CorrelationResult struct {
	Correlation float64 `json:"correlation_with_benchmark"`
	Beta        float64 `json:"beta"`
	RSquared    float64 `json:"r_squared"`
}

// PortfolioSnapshot summarizes co-movement across all analyzed symbols.
// DiversificationRatio is nil when the mean pairwise correlation is zero
// or negative, where the ratio is undefined.
type PortfolioSnapshot struct {
	CorrelationMatrix    map[string]map[string]float64 `json:"correlation_matrix"`
	PCAExplainedVariance []float64                     `json:"pca_explained_variance"`
	PortfolioVolatility  float64                       `json:"portfolio_volatility"`
	DiversificationRatio *float64                      `json:"diversification_ratio"`
}

// PerformanceMetrics holds simple return/volatility statistics for one
// series.
type PerformanceMetrics struct {
	TotalReturnPct       float64 `json:"total_return_pct"`
	AnnualizedReturnPct  float64 `json:"annualized_return_pct"`
	VolatilityPct        float64 `json:"volatility_pct"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

// IndicatorSignal pairs an indicator's latest value with its qualitative
// reading (BUY/SELL for moving averages, OVERBOUGHT/OVERSOLD/NEUTRAL for
// oscillators).
type IndicatorSignal struct {
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// VolatilitySignals carries the ATR reading of the technical summary.
type VolatilitySignals struct {
	ATR      float64 `json:"atr"`
	ATRRatio float64 `json:"atr_ratio"`
}

// VolumeSignals carries the volume reading of the technical summary.
type VolumeSignals struct {
	VolumeRatio  float64 `json:"volume_ratio"`
	VolumeSignal string  `json:"volume_signal"`
}

// TechnicalSummary is the latest-value view over the extended series.
// Indicators whose latest value is still undefined are omitted from the
// maps rather than reported as a wrong number.
type TechnicalSummary struct {
	CurrentPrice      float64                    `json:"current_price"`
	SMASignals        map[string]IndicatorSignal `json:"sma_signals"`
	MomentumSignals   map[string]IndicatorSignal `json:"momentum_signals"`
	VolatilitySignals *VolatilitySignals         `json:"volatility_signals,omitempty"`
	VolumeSignals     *VolumeSignals             `json:"volume_signals,omitempty"`
}

// SupportResistance holds up to three support levels (ascending) and three
// resistance levels (descending).
type SupportResistance struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// SymbolAnalysis is the per-symbol result assembled by the orchestrator.
type SymbolAnalysis struct {
	TechnicalIndicators TechnicalSummary   `json:"technical_indicators"`
	RiskMetrics         RiskMetrics        `json:"risk_metrics"`
	MarketRegime        MarketRegime       `json:"market_regime"`
	SupportResistance   SupportResistance  `json:"support_resistance"`
	Correlations        *CorrelationResult `json:"correlations,omitempty"`
	PerformanceMetrics  PerformanceMetrics `json:"performance_metrics"`
	SignalSummary       map[string]int     `json:"signal_summary"`
}

// AnalysisReport is the full batch result: one entry per analyzed symbol,
// a failure marker per rejected symbol, and a portfolio section when at
// least two symbols were analyzed.
type AnalysisReport struct {
	Symbols           map[string]*SymbolAnalysis `json:"symbols"`
	Errors            map[string]string          `json:"errors,omitempty"`
	PortfolioAnalysis *PortfolioSnapshot         `json:"portfolio_analysis,omitempty"`
	Benchmark         string                     `json:"benchmark,omitempty"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}
