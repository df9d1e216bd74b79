package services

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

// tradingDaysPerYear is the annualization basis for daily bars.
const tradingDaysPerYear = 252

// minRiskObservations is the smallest return sample the risk calculator
// accepts before degrading to the all-zero sentinel.
const minRiskObservations = 30

// RiskMetricsCalculator computes tail-risk and risk-adjusted-return
// statistics from one price series.
type RiskMetricsCalculator struct {
	logger *logrus.Logger
}

// NewRiskMetricsCalculator creates a risk metrics calculator.
func NewRiskMetricsCalculator(logger *logrus.Logger) *RiskMetricsCalculator {
	return &RiskMetricsCalculator{logger: logger}
}

// Compute derives risk metrics from the close-to-close returns of the
// series. Fewer than 30 return observations yield the all-zero sentinel,
// which callers must read as "insufficient data" rather than zero risk.
func (c *RiskMetricsCalculator) Compute(series models.PriceSeries) models.RiskMetrics {
	returns := simpleReturns(series.Closes())
	if len(returns) < minRiskObservations {
		c.logger.WithFields(logrus.Fields{
			"symbol":       series.Symbol,
			"observations": len(returns),
		}).Warn("insufficient data for risk calculation")
		return models.RiskMetrics{}
	}

	var95 := percentile(returns, 5)
	var99 := percentile(returns, 1)

	var tailSum float64
	var tailCount int
	for _, r := range returns {
		if r <= var95 {
			tailSum += r
			tailCount++
		}
	}
	expectedShortfall := 0.0
	if tailCount > 0 {
		expectedShortfall = tailSum / float64(tailCount)
	}

	maxDrawdown := maxDrawdown(returns)

	mean := stat.Mean(returns, nil)
	std := stat.StdDev(returns, nil)

	sharpe := 0.0
	if std != 0 {
		sharpe = mean / std * math.Sqrt(tradingDaysPerYear)
	}

	downside := downsideDeviation(returns)
	sortino := 0.0
	if downside != 0 {
		sortino = mean / downside * math.Sqrt(tradingDaysPerYear)
	}

	calmar := 0.0
	if maxDrawdown != 0 {
		calmar = mean * tradingDaysPerYear / math.Abs(maxDrawdown)
	}

	return models.RiskMetrics{
		VaR95:             var95,
		VaR99:             var99,
		ExpectedShortfall: expectedShortfall,
		MaxDrawdown:       maxDrawdown,
		SharpeRatio:       sharpe,
		SortinoRatio:      sortino,
		CalmarRatio:       calmar,
		// Single-series placeholders; a measured beta requires the
		// benchmark and is reported separately under correlations.
		Beta:  1.0,
		Alpha: mean * tradingDaysPerYear,
	}
}

// maxDrawdown is the deepest peak-to-trough decline of the cumulative
// return path. Always <= 0; exactly 0 only for a non-decreasing path.
func maxDrawdown(returns []float64) float64 {
	cumulative := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := (cumulative - peak) / peak
		if drawdown < worst {
			worst = drawdown
		}
	}
	return worst
}

// downsideDeviation is the root mean square of the negative returns only,
// or 0 when there are none.
func downsideDeviation(returns []float64) float64 {
	var sumSq float64
	var count int
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count))
}
