package services

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

// minOverlapObservations is the smallest aligned return sample the
// correlation engine accepts.
const minOverlapObservations = 10

// CorrelationEngine relates an asset's returns to a benchmark's returns.
type CorrelationEngine struct {
	logger *logrus.Logger
}

// NewCorrelationEngine creates a correlation engine.
func NewCorrelationEngine(logger *logrus.Logger) *CorrelationEngine {
	return &CorrelationEngine{logger: logger}
}

// Correlate aligns the two return series by timestamp and computes Pearson
// correlation, beta and R². It returns nil when fewer than 10 observations
// overlap: the relationship could not be measured, which is not the same
// as measuring none.
func (e *CorrelationEngine) Correlate(asset, benchmark models.PriceSeries) *models.CorrelationResult {
	assetReturns := returnsByDate(asset)
	benchmarkReturns := returnsByDate(benchmark)

	dates := make([]int64, 0, len(assetReturns))
	for date := range assetReturns {
		if _, ok := benchmarkReturns[date]; ok {
			dates = append(dates, date)
		}
	}
	if len(dates) < minOverlapObservations {
		e.logger.WithFields(logrus.Fields{
			"symbol":    asset.Symbol,
			"benchmark": benchmark.Symbol,
			"overlap":   len(dates),
		}).Warn("insufficient overlap for correlation")
		return nil
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	a := make([]float64, len(dates))
	b := make([]float64, len(dates))
	for i, date := range dates {
		a[i] = assetReturns[date]
		b[i] = benchmarkReturns[date]
	}

	correlation := stat.Correlation(a, b, nil)
	if math.IsNaN(correlation) {
		// Zero variance on either side; report no relationship.
		correlation = 0
	}

	beta := 1.0
	if len(a) >= 2 {
		if variance := stat.Variance(b, nil); variance != 0 {
			beta = stat.Covariance(a, b, nil) / variance
		}
	}

	return &models.CorrelationResult{
		Correlation: correlation,
		Beta:        beta,
		RSquared:    correlation * correlation,
	}
}

// returnsByDate maps each bar date (after the first) to its simple return,
// keyed by Unix timestamp.
func returnsByDate(series models.PriceSeries) map[int64]float64 {
	out := make(map[int64]float64, series.Len())
	for i := 1; i < series.Len(); i++ {
		prev := series.Bars[i-1].Close
		out[series.Bars[i].Date.Unix()] = series.Bars[i].Close/prev - 1
	}
	return out
}
