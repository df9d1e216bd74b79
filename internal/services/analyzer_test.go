package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

func testAnalyzer() *MarketAnalyzer {
	return NewMarketAnalyzer(DefaultIndicatorConfig(), testLogger())
}

func TestAnalyzeMarketFullReport(t *testing.T) {
	req := AnalysisRequest{
		Series: map[string]models.PriceSeries{
			"AAA": makeSeries("AAA", noisyCloses(250)),
			"BBB": makeSeries("BBB", linspace(50, 80, 250)),
			"SPY": makeSeries("SPY", noisyCloses(250)),
		},
		Benchmark: "SPY",
	}

	report, err := testAnalyzer().AnalyzeMarket(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, report)

	// The benchmark is correlated against, not analyzed.
	assert.Len(t, report.Symbols, 2)
	assert.NotContains(t, report.Symbols, "SPY")
	assert.Empty(t, report.Errors)
	assert.Equal(t, "SPY", report.Benchmark)
	assert.False(t, report.GeneratedAt.IsZero())

	for symbol, analysis := range report.Symbols {
		require.NotNil(t, analysis, symbol)
		assert.NotEmpty(t, analysis.TechnicalIndicators.SMASignals, symbol)
		assert.NotEmpty(t, analysis.TechnicalIndicators.MomentumSignals, symbol)
		assert.NotNil(t, analysis.TechnicalIndicators.VolatilitySignals, symbol)
		assert.NotEqual(t, models.RegimeUnknown, analysis.MarketRegime.Regime, symbol)
		assert.NotNil(t, analysis.Correlations, symbol)
		assert.NotEmpty(t, analysis.SignalSummary, symbol)
	}

	require.NotNil(t, report.PortfolioAnalysis)
	assert.Len(t, report.PortfolioAnalysis.CorrelationMatrix, 2)

	// The report must serialize cleanly: encoding/json rejects NaN and
	// infinities, so a successful marshal proves no leak.
	_, err = json.Marshal(report)
	require.NoError(t, err)
}

func TestAnalyzeMarketRecordsFailures(t *testing.T) {
	bad := makeSeries("BAD", noisyCloses(50))
	bad.Bars[10].Close = -5

	req := AnalysisRequest{
		Series: map[string]models.PriceSeries{
			"AAA": makeSeries("AAA", noisyCloses(120)),
			"BAD": bad,
		},
	}

	report, err := testAnalyzer().AnalyzeMarket(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, report.Symbols, "AAA")
	assert.NotContains(t, report.Symbols, "BAD")
	require.Contains(t, report.Errors, "BAD")
	assert.NotEmpty(t, report.Errors["BAD"])

	// One valid symbol is not a portfolio.
	assert.Nil(t, report.PortfolioAnalysis)
}

func TestAnalyzeMarketBenchmarkOnly(t *testing.T) {
	req := AnalysisRequest{
		Series:    map[string]models.PriceSeries{"SPY": makeSeries("SPY", noisyCloses(60))},
		Benchmark: "SPY",
	}

	report, err := testAnalyzer().AnalyzeMarket(context.Background(), req)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestAnalyzeMarketInvalidBenchmarkSkipsCorrelations(t *testing.T) {
	req := AnalysisRequest{
		Series: map[string]models.PriceSeries{
			"AAA": makeSeries("AAA", noisyCloses(120)),
			"BBB": makeSeries("BBB", noisyCloses(120)),
		},
		Benchmark: "SPY",
	}

	report, err := testAnalyzer().AnalyzeMarket(context.Background(), req)
	require.NoError(t, err)

	for symbol, analysis := range report.Symbols {
		assert.Nil(t, analysis.Correlations, symbol)
	}
	assert.NotNil(t, report.PortfolioAnalysis)
}

func TestAnalyzeMarketCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := AnalysisRequest{
		Series: map[string]models.PriceSeries{"AAA": makeSeries("AAA", noisyCloses(60))},
	}
	report, err := testAnalyzer().AnalyzeMarket(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestTechnicalSummaryShortSeries(t *testing.T) {
	analyzer := testAnalyzer()
	ext, err := analyzer.indicators.Compute(makeSeries("AAA", noisyCloses(10)))
	require.NoError(t, err)

	summary := analyzer.technicalSummary(ext)

	// Ten bars define no 20/50/200 moving average and no 14-period ATR.
	assert.Empty(t, summary.SMASignals)
	assert.Nil(t, summary.VolatilitySignals)
	// MACD seeds its EMAs from the first bar and is always defined.
	require.Contains(t, summary.MomentumSignals, "MACD")
	assert.Equal(t, SignalNeutral, summary.MomentumSignals["MACD"].Signal)
}

func TestTechnicalSummarySignals(t *testing.T) {
	analyzer := testAnalyzer()
	ext, err := analyzer.indicators.Compute(makeSeries("UP", linspace(100, 200, 250)))
	require.NoError(t, err)

	summary := analyzer.technicalSummary(ext)

	// A rising series trades above every moving average.
	for _, period := range smaSummaryPeriods {
		name := fmt.Sprintf("SMA_%d", period)
		require.Contains(t, summary.SMASignals, name)
		assert.Equal(t, SignalBuy, summary.SMASignals[name].Signal, name)
	}

	require.Contains(t, summary.MomentumSignals, "RSI")
	assert.Equal(t, SignalOverbought, summary.MomentumSignals["RSI"].Signal)

	require.NotNil(t, summary.VolatilitySignals)
	assert.Greater(t, summary.VolatilitySignals.ATR, 0.0)
	assert.InDelta(t, summary.VolatilitySignals.ATR/summary.CurrentPrice,
		summary.VolatilitySignals.ATRRatio, 1e-12)

	require.NotNil(t, summary.VolumeSignals)
	assert.Equal(t, "NORMAL", summary.VolumeSignals.VolumeSignal)
}

func TestPerformanceMetricsKnownPath(t *testing.T) {
	analyzer := testAnalyzer()
	metrics := analyzer.performanceMetrics(makeSeries("AAA", []float64{100, 110, 121}))

	assert.InDelta(t, 21.0, metrics.TotalReturnPct, 1e-9)
	assert.Equal(t, 2, metrics.MaxConsecutiveWins)
	assert.Equal(t, 0, metrics.MaxConsecutiveLosses)
	assert.Greater(t, metrics.AnnualizedReturnPct, 0.0)
}

func TestPerformanceMetricsSingleBar(t *testing.T) {
	analyzer := testAnalyzer()
	metrics := analyzer.performanceMetrics(makeSeries("AAA", []float64{100}))
	assert.Zero(t, metrics)
}

func TestConsecutiveStreaks(t *testing.T) {
	wins, losses := consecutiveStreaks([]float64{0.01, 0.02, -0.01, -0.02, -0.03, 0.05})
	assert.Equal(t, 2, wins)
	assert.Equal(t, 3, losses)

	wins, losses = consecutiveStreaks(nil)
	assert.Zero(t, wins)
	assert.Zero(t, losses)
}
