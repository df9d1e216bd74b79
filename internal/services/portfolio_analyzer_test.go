package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

func TestPortfolioIdenticalAssets(t *testing.T) {
	returns := make([]float64, 80)
	for i := range returns {
		returns[i] = 0.01 * math.Sin(float64(i)*0.9)
	}
	series := map[string]models.PriceSeries{
		"AAA": seriesFromReturns("AAA", returns),
		"BBB": seriesFromReturns("BBB", returns),
	}

	analyzer := NewPortfolioAnalyzer(testLogger())
	snapshot := analyzer.Analyze(series)
	require.NotNil(t, snapshot)

	assert.InDelta(t, 1.0, snapshot.CorrelationMatrix["AAA"]["BBB"], 1e-9)
	assert.Equal(t, 1.0, snapshot.CorrelationMatrix["AAA"]["AAA"])
	assert.Equal(t, 1.0, snapshot.CorrelationMatrix["BBB"]["BBB"])

	// Perfect correlation: a single component carries all the variance.
	require.NotEmpty(t, snapshot.PCAExplainedVariance)
	assert.InDelta(t, 1.0, snapshot.PCAExplainedVariance[0], 1e-9)

	// The equal-weight portfolio of two identical assets is the asset.
	expectedVol := stat.StdDev(returns, nil) * math.Sqrt(252)
	assert.InDelta(t, expectedVol, snapshot.PortfolioVolatility, 1e-9)

	require.NotNil(t, snapshot.DiversificationRatio)
	assert.InDelta(t, 1/math.Sqrt2, *snapshot.DiversificationRatio, 1e-9)
}

func TestPortfolioAntiCorrelatedAssets(t *testing.T) {
	returns := make([]float64, 60)
	for i := range returns {
		returns[i] = 0.012 * math.Cos(float64(i)*1.3)
	}
	mirrored := make([]float64, len(returns))
	for i, r := range returns {
		mirrored[i] = -r
	}
	series := map[string]models.PriceSeries{
		"AAA": seriesFromReturns("AAA", returns),
		"BBB": seriesFromReturns("BBB", mirrored),
	}

	analyzer := NewPortfolioAnalyzer(testLogger())
	snapshot := analyzer.Analyze(series)
	require.NotNil(t, snapshot)

	assert.InDelta(t, -1.0, snapshot.CorrelationMatrix["AAA"]["BBB"], 1e-9)
	// A non-positive mean pairwise correlation leaves the ratio undefined.
	assert.Nil(t, snapshot.DiversificationRatio)
}

func TestPortfolioExplainedVarianceSumsToOne(t *testing.T) {
	series := map[string]models.PriceSeries{
		"AAA": makeSeries("AAA", noisyCloses(90)),
		"BBB": seriesFromReturns("BBB", tail(simpleReturns(noisyCloses(95)), 89)),
		"CCC": makeSeries("CCC", linspace(50, 90, 90)),
	}

	analyzer := NewPortfolioAnalyzer(testLogger())
	snapshot := analyzer.Analyze(series)
	require.NotNil(t, snapshot)

	require.Len(t, snapshot.PCAExplainedVariance, 3)
	var total float64
	for _, ratio := range snapshot.PCAExplainedVariance {
		assert.GreaterOrEqual(t, ratio, 0.0)
		total += ratio
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestPortfolioSingleAsset(t *testing.T) {
	series := map[string]models.PriceSeries{
		"AAA": makeSeries("AAA", noisyCloses(50)),
	}

	analyzer := NewPortfolioAnalyzer(testLogger())
	snapshot := analyzer.Analyze(series)
	require.NotNil(t, snapshot)

	require.NotNil(t, snapshot.DiversificationRatio)
	assert.Equal(t, 1.0, *snapshot.DiversificationRatio)
}

func TestPortfolioNoAlignedDates(t *testing.T) {
	shifted := makeSeries("BBB", noisyCloses(40))
	for i := range shifted.Bars {
		shifted.Bars[i].Date = testDate(i + 1000)
	}
	series := map[string]models.PriceSeries{
		"AAA": makeSeries("AAA", noisyCloses(40)),
		"BBB": shifted,
	}

	analyzer := NewPortfolioAnalyzer(testLogger())
	assert.Nil(t, analyzer.Analyze(series))
}

func TestPortfolioEmptyInput(t *testing.T) {
	analyzer := NewPortfolioAnalyzer(testLogger())
	assert.Nil(t, analyzer.Analyze(map[string]models.PriceSeries{}))
}

func TestAlignedDatesIntersection(t *testing.T) {
	a := map[int64]float64{1: 0.1, 2: 0.2, 3: 0.3}
	b := map[int64]float64{2: 0.2, 3: 0.3, 4: 0.4}
	assert.Equal(t, []int64{2, 3}, alignedDates([]map[int64]float64{a, b}))
}
