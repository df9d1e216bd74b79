package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

// smaSummaryPeriods are the moving averages surfaced in the technical
// summary.
var smaSummaryPeriods = []int{20, 50, 200}

// supportResistanceWindow is the centered window for level detection.
const supportResistanceWindow = 20

// highVolumeRatio is the ratio above which volume reads as HIGH.
const highVolumeRatio = 1.5

// AnalysisRequest is one batch of validated price series. When Benchmark
// names a key of Series, that series is used for benchmark correlation and
// excluded from the analyzed set.
type AnalysisRequest struct {
	Series    map[string]models.PriceSeries
	Benchmark string
}

// MarketAnalyzer composes the per-symbol engines and assembles the final
// report. It is the only component aware of "many symbols + benchmark".
type MarketAnalyzer struct {
	logger       *logrus.Logger
	indicators   *IndicatorEngine
	risk         *RiskMetricsCalculator
	regimes      *RegimeDetector
	correlations *CorrelationEngine
	portfolio    *PortfolioAnalyzer
}

// NewMarketAnalyzer creates the orchestrator with all engines sharing one
// configuration and logger.
func NewMarketAnalyzer(config IndicatorConfig, logger *logrus.Logger) *MarketAnalyzer {
	return &MarketAnalyzer{
		logger:       logger,
		indicators:   NewIndicatorEngine(config, logger),
		risk:         NewRiskMetricsCalculator(logger),
		regimes:      NewRegimeDetector(logger),
		correlations: NewCorrelationEngine(logger),
		portfolio:    NewPortfolioAnalyzer(logger),
	}
}

// AnalyzeMarket analyzes every requested symbol independently and, when at
// least two symbols validate, adds a portfolio section. A symbol whose
// series fails validation is recorded under Errors without aborting the
// rest of the batch.
func (a *MarketAnalyzer) AnalyzeMarket(ctx context.Context, req AnalysisRequest) (*models.AnalysisReport, error) {
	symbols := make([]string, 0, len(req.Series))
	for symbol := range req.Series {
		if symbol == req.Benchmark {
			continue
		}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("analysis request contains no symbols to analyze")
	}
	sort.Strings(symbols)

	var benchmark *models.PriceSeries
	if req.Benchmark != "" {
		if series, ok := req.Series[req.Benchmark]; ok && series.Validate() == nil {
			benchmark = &series
		} else {
			a.logger.WithField("benchmark", req.Benchmark).Warn("benchmark series missing or invalid; skipping correlations")
		}
	}

	a.logger.WithFields(logrus.Fields{
		"symbols":   len(symbols),
		"benchmark": req.Benchmark,
	}).Info("starting market analysis")

	type outcome struct {
		analysis *models.SymbolAnalysis
		err      error
	}
	outcomes := make([]outcome, len(symbols))

	// Per-symbol computation is independent and side-effect-free, so it
	// fans out across goroutines with a join barrier before the portfolio
	// step, which needs every symbol's series.
	var wg sync.WaitGroup
	for i := range symbols {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func(i int, series models.PriceSeries) {
			defer wg.Done()
			analysis, err := a.analyzeSymbol(series, benchmark)
			outcomes[i] = outcome{analysis: analysis, err: err}
		}(i, req.Series[symbols[i]])
	}
	wg.Wait()

	report := &models.AnalysisReport{
		Symbols:     make(map[string]*models.SymbolAnalysis, len(symbols)),
		Errors:      make(map[string]string),
		Benchmark:   req.Benchmark,
		GeneratedAt: time.Now().UTC(),
	}
	valid := make(map[string]models.PriceSeries, len(symbols))
	for i, symbol := range symbols {
		if outcomes[i].err != nil {
			a.logger.WithFields(logrus.Fields{
				"symbol": symbol,
			}).WithError(outcomes[i].err).Error("symbol analysis failed")
			report.Errors[symbol] = outcomes[i].err.Error()
			continue
		}
		report.Symbols[symbol] = outcomes[i].analysis
		valid[symbol] = req.Series[symbol]
	}

	if len(valid) >= 2 {
		report.PortfolioAnalysis = a.portfolio.Analyze(valid)
	} else {
		a.logger.WithField("valid_symbols", len(valid)).Debug("skipping portfolio analysis")
	}

	a.logger.WithFields(logrus.Fields{
		"analyzed": len(report.Symbols),
		"failed":   len(report.Errors),
	}).Info("market analysis complete")

	return report, nil
}

func (a *MarketAnalyzer) analyzeSymbol(series models.PriceSeries, benchmark *models.PriceSeries) (*models.SymbolAnalysis, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	ext, err := a.indicators.Compute(series)
	if err != nil {
		return nil, err
	}

	analysis := &models.SymbolAnalysis{
		TechnicalIndicators: a.technicalSummary(ext),
		RiskMetrics:         a.risk.Compute(series),
		MarketRegime:        a.regimes.Detect(series),
		SupportResistance:   a.indicators.SupportResistance(series, supportResistanceWindow),
		PerformanceMetrics:  a.performanceMetrics(series),
		SignalSummary:       a.indicators.SignalSummary(ext),
	}
	if benchmark != nil {
		analysis.Correlations = a.correlations.Correlate(series, *benchmark)
	}
	return analysis, nil
}

// technicalSummary extracts the latest-value view of the extended series.
// Indicators whose latest value is undefined are omitted.
func (a *MarketAnalyzer) technicalSummary(ext *models.ExtendedSeries) models.TechnicalSummary {
	closes := ext.Series.Closes()
	currentPrice := closes[len(closes)-1]

	summary := models.TechnicalSummary{
		CurrentPrice:    currentPrice,
		SMASignals:      make(map[string]models.IndicatorSignal),
		MomentumSignals: make(map[string]models.IndicatorSignal),
	}

	for _, period := range smaSummaryPeriods {
		name := fmt.Sprintf("SMA_%d", period)
		if value, ok := ext.Latest(name); ok {
			signal := SignalSell
			if currentPrice > value {
				signal = SignalBuy
			}
			summary.SMASignals[name] = models.IndicatorSignal{Value: value, Signal: signal}
		}
	}

	for _, kind := range MomentumIndicatorKinds {
		if value, ok := ext.Latest(kind.Column()); ok {
			summary.MomentumSignals[kind.Column()] = models.IndicatorSignal{
				Value:  value,
				Signal: kind.Interpret(value),
			}
		}
	}
	// MACD is unbounded; it is reported without an overbought/oversold
	// reading.
	if value, ok := ext.Latest("MACD"); ok {
		summary.MomentumSignals["MACD"] = models.IndicatorSignal{Value: value, Signal: SignalNeutral}
	}

	if atr, ok := ext.Latest("ATR"); ok {
		summary.VolatilitySignals = &models.VolatilitySignals{
			ATR:      atr,
			ATRRatio: atr / currentPrice,
		}
	}

	if ratio, ok := ext.Latest("Volume_Ratio"); ok {
		signal := "NORMAL"
		if ratio > highVolumeRatio {
			signal = "HIGH"
		}
		summary.VolumeSignals = &models.VolumeSignals{VolumeRatio: ratio, VolumeSignal: signal}
	}

	return summary
}

// performanceMetrics derives simple return statistics over the whole
// series.
func (a *MarketAnalyzer) performanceMetrics(series models.PriceSeries) models.PerformanceMetrics {
	closes := series.Closes()
	returns := simpleReturns(closes)
	if len(returns) == 0 {
		return models.PerformanceMetrics{}
	}

	totalReturn := (closes[len(closes)-1]/closes[0] - 1) * 100
	days := float64(len(returns))
	annualized := math.Pow(1+totalReturn/100, tradingDaysPerYear/days) - 1

	volatility := 0.0
	if len(returns) >= 2 {
		volatility = stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)
	}

	sharpe := 0.0
	if volatility != 0 {
		sharpe = annualized / volatility
	}

	wins, losses := consecutiveStreaks(returns)

	return models.PerformanceMetrics{
		TotalReturnPct:       totalReturn,
		AnnualizedReturnPct:  annualized * 100,
		VolatilityPct:        volatility * 100,
		SharpeRatio:          sharpe,
		MaxConsecutiveWins:   wins,
		MaxConsecutiveLosses: losses,
	}
}

// consecutiveStreaks returns the longest runs of positive and negative
// returns.
func consecutiveStreaks(returns []float64) (maxWins, maxLosses int) {
	var wins, losses int
	for _, r := range returns {
		if r > 0 {
			wins++
			if wins > maxWins {
				maxWins = wins
			}
		} else {
			wins = 0
		}
		if r < 0 {
			losses++
			if losses > maxLosses {
				maxLosses = losses
			}
		} else {
			losses = 0
		}
	}
	return maxWins, maxLosses
}
