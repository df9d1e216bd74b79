package services

import (
	"github.com/irfandi/market-analyzer-go/internal/models"
)

// Qualitative signal labels used in the technical summary.
const (
	SignalBuy        = "BUY"
	SignalSell       = "SELL"
	SignalOverbought = "OVERBOUGHT"
	SignalOversold   = "OVERSOLD"
	SignalNeutral    = "NEUTRAL"
)

// MomentumIndicatorKind enumerates the oscillators with a bounded
// overbought/oversold interpretation. The closed set keeps threshold
// dispatch exhaustive at compile time instead of falling through a
// string-keyed default.
type MomentumIndicatorKind int

const (
	MomentumRSI MomentumIndicatorKind = iota
	MomentumStochasticK
	MomentumWilliamsR
	MomentumCCI
)

// MomentumIndicatorKinds lists every kind in report order.
var MomentumIndicatorKinds = []MomentumIndicatorKind{
	MomentumRSI,
	MomentumStochasticK,
	MomentumWilliamsR,
	MomentumCCI,
}

// Column returns the extended-series column this kind reads.
func (k MomentumIndicatorKind) Column() string {
	switch k {
	case MomentumRSI:
		return "RSI"
	case MomentumStochasticK:
		return "Stoch_K"
	case MomentumWilliamsR:
		return "Williams_R"
	case MomentumCCI:
		return "CCI"
	}
	return ""
}

// thresholds returns the overbought and oversold cut-offs for this kind.
// Every kind reads overbought above the upper cut-off and oversold below
// the lower one; Williams %R fits the same orientation because its scale
// runs from -100 to 0.
func (k MomentumIndicatorKind) thresholds() (overbought, oversold float64) {
	switch k {
	case MomentumRSI:
		return 70, 30
	case MomentumStochasticK:
		return 80, 20
	case MomentumWilliamsR:
		return -20, -80
	case MomentumCCI:
		return 100, -100
	}
	return 0, 0
}

// Interpret maps an indicator value to its qualitative reading. An
// undefined value reads as neutral.
func (k MomentumIndicatorKind) Interpret(value float64) string {
	if models.IsMissing(value) {
		return SignalNeutral
	}
	overbought, oversold := k.thresholds()
	switch {
	case value > overbought:
		return SignalOverbought
	case value < oversold:
		return SignalOversold
	default:
		return SignalNeutral
	}
}
