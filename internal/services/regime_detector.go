package services

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

// minRegimeObservations is the smallest return sample regime detection
// accepts before reporting UNKNOWN.
const minRegimeObservations = 20

// regimeWindow is the lookback for volatility and trend estimation.
const regimeWindow = 20

// hurstSampleSize caps the return tail used for the Hurst estimate.
const hurstSampleSize = 100

// RegimeDetector classifies the prevailing volatility/trend/mean-reversion
// regime of one price series.
type RegimeDetector struct {
	logger *logrus.Logger
}

// NewRegimeDetector creates a regime detector.
func NewRegimeDetector(logger *logrus.Logger) *RegimeDetector {
	return &RegimeDetector{logger: logger}
}

// Detect classifies the series regime. Fewer than 20 return observations
// yield the UNKNOWN sentinel with zeroed fields.
func (d *RegimeDetector) Detect(series models.PriceSeries) models.MarketRegime {
	closes := series.Closes()
	returns := simpleReturns(closes)
	if len(returns) < minRegimeObservations {
		d.logger.WithFields(logrus.Fields{
			"symbol":       series.Symbol,
			"observations": len(returns),
		}).Warn("insufficient data for regime detection")
		return models.MarketRegime{Regime: models.RegimeUnknown}
	}

	rolled := rollingStd(returns, regimeWindow)
	volatility := rolled[len(rolled)-1] * math.Sqrt(tradingDaysPerYear)

	trendStrength := d.trendStrength(closes)
	meanReversion := hurstExponent(tail(returns, hurstSampleSize))

	var regime models.RegimeLabel
	switch {
	case volatility > 0.3:
		regime = models.RegimeHighVolatility
	case volatility < 0.1:
		regime = models.RegimeLowVolatility
	case trendStrength > 0.5:
		regime = models.RegimeTrending
	case meanReversion < 0.5:
		regime = models.RegimeMeanReverting
	default:
		regime = models.RegimeNormal
	}

	return models.MarketRegime{
		Regime:        regime,
		Volatility:    volatility,
		TrendStrength: trendStrength,
		MeanReversion: meanReversion,
	}
}

// trendStrength is the absolute OLS slope of close against bar index over
// the last 20 bars, normalized by the latest close and scaled to percent.
func (d *RegimeDetector) trendStrength(closes []float64) float64 {
	window := tail(closes, regimeWindow)
	xs := make([]float64, len(window))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, window, nil, false)
	latest := closes[len(closes)-1]
	return math.Abs(slope) / latest * 100
}

// hurstExponent estimates the Hurst exponent by a log-log regression of
// the dispersion of rolling cumulative return sums against lag. Any
// numerical failure defaults to 0.5, the random-walk assumption.
func hurstExponent(returns []float64) float64 {
	maxLag := min(hurstSampleSize, len(returns)/2)
	if maxLag <= 2 {
		return 0.5
	}

	var logLags, logTau []float64
	for lag := 2; lag < maxLag; lag++ {
		sums := rollingSum(returns, lag)
		defined := sums[lag-1:]
		tau := stat.PopStdDev(defined, nil)
		if !(tau > 0) {
			return 0.5
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logTau = append(logTau, math.Log(tau))
	}
	if len(logLags) < 2 {
		return 0.5
	}

	_, slope := stat.LinearRegression(logLags, logTau, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0.5
	}
	return slope
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
