package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

// IndicatorConfig is the immutable configuration for indicator computation.
// Build one with DefaultIndicatorConfig (or a fully-specified literal) and
// never mutate it afterwards; the engine copies nothing back into it.
type IndicatorConfig struct {
	SMAPeriods  []int
	EMAPeriods  []int
	RSIPeriod   int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	BBPeriod    int
	BBStdDev    float64
	StochasticK int
	StochasticD int
}

// DefaultIndicatorConfig returns the fully-specified default configuration.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		SMAPeriods:  []int{5, 10, 20, 50, 200},
		EMAPeriods:  []int{8, 12, 21, 26, 50},
		RSIPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		BBPeriod:    20,
		BBStdDev:    2.0,
		StochasticK: 14,
		StochasticD: 3,
	}
}

// IndicatorEngine derives the full set of technical-indicator columns from
// one price series. Compute is deterministic and side-effect-free: the same
// input always yields bit-identical columns.
type IndicatorEngine struct {
	config IndicatorConfig
	logger *logrus.Logger
}

// NewIndicatorEngine creates an indicator engine with the given
// configuration.
func NewIndicatorEngine(config IndicatorConfig, logger *logrus.Logger) *IndicatorEngine {
	return &IndicatorEngine{config: config, logger: logger}
}

// Compute derives every configured indicator column. Series shorter than a
// window yield missing leading values, never an error; only an empty series
// is rejected.
func (e *IndicatorEngine) Compute(series models.PriceSeries) (*models.ExtendedSeries, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("series %q: %w", series.Symbol, models.ErrEmptySeries)
	}

	ext := models.NewExtendedSeries(series)
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	e.computeMovingAverages(ext, closes)
	e.computeRSI(ext, closes)
	e.computeMACD(ext, closes)
	e.computeBollingerBands(ext, closes)
	e.computeStochastic(ext, highs, lows, closes)
	e.computeWilliamsR(ext, highs, lows, closes)
	e.computeCCI(ext, highs, lows, closes)
	e.computeVolumeIndicators(ext, closes, volumes)
	e.computeATR(ext, highs, lows, closes)
	e.computeKeltnerChannels(ext, closes)
	e.computeIchimoku(ext, highs, lows, closes)
	e.computeVWAP(ext, highs, lows, closes, volumes)

	e.logger.WithFields(logrus.Fields{
		"symbol":  series.Symbol,
		"bars":    series.Len(),
		"columns": len(ext.Columns),
	}).Debug("indicator computation complete")

	return ext, nil
}

func (e *IndicatorEngine) computeMovingAverages(ext *models.ExtendedSeries, closes []float64) {
	for _, period := range e.config.SMAPeriods {
		ext.SetColumn(fmt.Sprintf("SMA_%d", period), rollingMean(closes, period))
	}
	for _, period := range e.config.EMAPeriods {
		ext.SetColumn(fmt.Sprintf("EMA_%d", period), ema(closes, period))
	}

	sma50, ok50 := ext.Column("SMA_50")
	sma200, ok200 := ext.Column("SMA_200")
	if !ok50 || !ok200 {
		return
	}
	n := len(closes)
	golden := make([]float64, n)
	death := make([]float64, n)
	for i := 1; i < n; i++ {
		// Comparisons against missing values are false, so a cross can
		// only fire once both averages are defined on both bars.
		if sma50[i] > sma200[i] && sma50[i-1] <= sma200[i-1] {
			golden[i] = 1
		}
		if sma50[i] < sma200[i] && sma50[i-1] >= sma200[i-1] {
			death[i] = 1
		}
	}
	ext.SetColumn("Golden_Cross", golden)
	ext.SetColumn("Death_Cross", death)
}

func (e *IndicatorEngine) computeRSI(ext *models.ExtendedSeries, closes []float64) {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	meanGain := rollingMean(gains, e.config.RSIPeriod)
	meanLoss := rollingMean(losses, e.config.RSIPeriod)

	rsi := nanSlice(n)
	for i := range rsi {
		g, l := meanGain[i], meanLoss[i]
		if models.IsMissing(g) || models.IsMissing(l) {
			continue
		}
		if l == 0 {
			// Zero losses in the window: the gain/loss ratio saturates.
			rsi[i] = 100
			continue
		}
		rs := g / l
		rsi[i] = 100 - 100/(1+rs)
	}
	ext.SetColumn("RSI", rsi)
	ext.SetColumn("RSI_Overbought", flagGreater(rsi, 70))
	ext.SetColumn("RSI_Oversold", flagLess(rsi, 30))
}

func (e *IndicatorEngine) computeMACD(ext *models.ExtendedSeries, closes []float64) {
	fast := ema(closes, e.config.MACDFast)
	slow := ema(closes, e.config.MACDSlow)
	macd := sub(fast, slow)
	signal := ema(macd, e.config.MACDSignal)
	histogram := sub(macd, signal)

	n := len(closes)
	bullish := make([]float64, n)
	bearish := make([]float64, n)
	for i := 1; i < n; i++ {
		if macd[i] > signal[i] && macd[i-1] <= signal[i-1] {
			bullish[i] = 1
		}
		if macd[i] < signal[i] && macd[i-1] >= signal[i-1] {
			bearish[i] = 1
		}
	}

	ext.SetColumn("MACD", macd)
	ext.SetColumn("MACD_Signal", signal)
	ext.SetColumn("MACD_Histogram", histogram)
	ext.SetColumn("MACD_Bullish_Cross", bullish)
	ext.SetColumn("MACD_Bearish_Cross", bearish)
}

func (e *IndicatorEngine) computeBollingerBands(ext *models.ExtendedSeries, closes []float64) {
	middle := rollingMean(closes, e.config.BBPeriod)
	std := rollingStd(closes, e.config.BBPeriod)

	n := len(closes)
	upper := nanSlice(n)
	lower := nanSlice(n)
	width := nanSlice(n)
	position := nanSlice(n)
	for i := range closes {
		if models.IsMissing(middle[i]) || models.IsMissing(std[i]) {
			continue
		}
		upper[i] = middle[i] + std[i]*e.config.BBStdDev
		lower[i] = middle[i] - std[i]*e.config.BBStdDev
		width[i] = upper[i] - lower[i]
		if width[i] != 0 {
			position[i] = (closes[i] - lower[i]) / width[i]
		}
	}

	ext.SetColumn("BB_Upper", upper)
	ext.SetColumn("BB_Lower", lower)
	ext.SetColumn("BB_Middle", middle)
	ext.SetColumn("BB_Width", width)
	ext.SetColumn("BB_Position", position)
	ext.SetColumn("BB_Overbought", flagPairGreater(closes, upper))
	ext.SetColumn("BB_Oversold", flagPairLess(closes, lower))
}

func (e *IndicatorEngine) computeStochastic(ext *models.ExtendedSeries, highs, lows, closes []float64) {
	lowMin := rollingMin(lows, e.config.StochasticK)
	highMax := rollingMax(highs, e.config.StochasticK)

	n := len(closes)
	k := nanSlice(n)
	for i := range closes {
		if models.IsMissing(lowMin[i]) || models.IsMissing(highMax[i]) {
			continue
		}
		spread := highMax[i] - lowMin[i]
		if spread == 0 {
			continue
		}
		k[i] = 100 * (closes[i] - lowMin[i]) / spread
	}
	d := rollingMean(k, e.config.StochasticD)

	ext.SetColumn("Stoch_K", k)
	ext.SetColumn("Stoch_D", d)
	ext.SetColumn("Stoch_Overbought", flagGreater(k, 80))
	ext.SetColumn("Stoch_Oversold", flagLess(k, 20))
}

func (e *IndicatorEngine) computeWilliamsR(ext *models.ExtendedSeries, highs, lows, closes []float64) {
	const period = 14
	highMax := rollingMax(highs, period)
	lowMin := rollingMin(lows, period)

	wr := nanSlice(len(closes))
	for i := range closes {
		if models.IsMissing(highMax[i]) || models.IsMissing(lowMin[i]) {
			continue
		}
		spread := highMax[i] - lowMin[i]
		if spread == 0 {
			continue
		}
		wr[i] = -100 * (highMax[i] - closes[i]) / spread
	}
	ext.SetColumn("Williams_R", wr)
}

func (e *IndicatorEngine) computeCCI(ext *models.ExtendedSeries, highs, lows, closes []float64) {
	const period = 20
	tp := typicalPrice(highs, lows, closes)
	smaTP := rollingMean(tp, period)
	mad := rollingApply(tp, period, func(win []float64) float64 {
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(len(win))
		dev := 0.0
		for _, v := range win {
			dev += math.Abs(v - mean)
		}
		return dev / float64(len(win))
	})

	cci := nanSlice(len(closes))
	for i := range closes {
		if models.IsMissing(smaTP[i]) || models.IsMissing(mad[i]) || mad[i] == 0 {
			continue
		}
		cci[i] = (tp[i] - smaTP[i]) / (0.015 * mad[i])
	}
	ext.SetColumn("CCI", cci)
}

func (e *IndicatorEngine) computeVolumeIndicators(ext *models.ExtendedSeries, closes, volumes []float64) {
	n := len(closes)

	obv := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv[i] = obv[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			obv[i] = obv[i-1] - volumes[i]
		default:
			obv[i] = obv[i-1]
		}
	}
	ext.SetColumn("OBV", obv)

	const rocPeriod = 10
	roc := nanSlice(n)
	for i := rocPeriod; i < n; i++ {
		if volumes[i-rocPeriod] == 0 {
			continue
		}
		roc[i] = (volumes[i]/volumes[i-rocPeriod] - 1) * 100
	}
	ext.SetColumn("Volume_ROC", roc)

	volumeMA := rollingMean(volumes, 20)
	ratio := nanSlice(n)
	for i := range volumes {
		if models.IsMissing(volumeMA[i]) || volumeMA[i] == 0 {
			continue
		}
		ratio[i] = volumes[i] / volumeMA[i]
	}
	ext.SetColumn("Volume_MA", volumeMA)
	ext.SetColumn("Volume_Ratio", ratio)
}

func (e *IndicatorEngine) computeATR(ext *models.ExtendedSeries, highs, lows, closes []float64) {
	const period = 14
	n := len(closes)
	tr := make([]float64, n)
	if n > 0 {
		tr[0] = highs[0] - lows[0]
	}
	for i := 1; i < n; i++ {
		tr[i] = math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
	}
	ext.SetColumn("ATR", rollingMean(tr, period))
}

func (e *IndicatorEngine) computeKeltnerChannels(ext *models.ExtendedSeries, closes []float64) {
	middle := ema(closes, 20)
	atr, ok := ext.Column("ATR")
	if !ok {
		atr = nanSlice(len(closes))
	}

	n := len(closes)
	upper := nanSlice(n)
	lower := nanSlice(n)
	for i := range closes {
		if models.IsMissing(atr[i]) {
			continue
		}
		upper[i] = middle[i] + 2*atr[i]
		lower[i] = middle[i] - 2*atr[i]
	}
	ext.SetColumn("KC_Upper", upper)
	ext.SetColumn("KC_Lower", lower)
	ext.SetColumn("KC_Middle", middle)
}

func (e *IndicatorEngine) computeIchimoku(ext *models.ExtendedSeries, highs, lows, closes []float64) {
	midpoint := func(period int) []float64 {
		hi := rollingMax(highs, period)
		lo := rollingMin(lows, period)
		out := nanSlice(len(highs))
		for i := range out {
			if models.IsMissing(hi[i]) || models.IsMissing(lo[i]) {
				continue
			}
			out[i] = (hi[i] + lo[i]) / 2
		}
		return out
	}

	tenkan := midpoint(9)
	kijun := midpoint(26)

	senkouA := nanSlice(len(closes))
	for i := range senkouA {
		if models.IsMissing(tenkan[i]) || models.IsMissing(kijun[i]) {
			continue
		}
		senkouA[i] = (tenkan[i] + kijun[i]) / 2
	}

	// Senkou spans lead by 26 bars and the Chikou span lags by 26; these
	// are index shifts, not rolling windows.
	ext.SetColumn("Ichimoku_Tenkan", tenkan)
	ext.SetColumn("Ichimoku_Kijun", kijun)
	ext.SetColumn("Ichimoku_Senkou_A", shift(senkouA, 26))
	ext.SetColumn("Ichimoku_Senkou_B", shift(midpoint(52), 26))
	ext.SetColumn("Ichimoku_Chikou", shift(closes, -26))
}

func (e *IndicatorEngine) computeVWAP(ext *models.ExtendedSeries, highs, lows, closes, volumes []float64) {
	tp := typicalPrice(highs, lows, closes)
	vwap := nanSlice(len(closes))
	cumTPV := 0.0
	cumVolume := 0.0
	for i := range closes {
		cumTPV += tp[i] * volumes[i]
		cumVolume += volumes[i]
		if cumVolume == 0 {
			continue
		}
		// Running from series inception; callers wanting a session VWAP
		// slice their input first.
		vwap[i] = cumTPV / cumVolume
	}
	ext.SetColumn("VWAP", vwap)
}

// SignalSummary reports the most recent value of every flag-like column
// (any column whose name mentions a signal, cross, or overbought/oversold
// state), truncated to an integer. Missing values report as 0.
func (e *IndicatorEngine) SignalSummary(ext *models.ExtendedSeries) map[string]int {
	summary := make(map[string]int)
	for _, name := range ext.ColumnNames() {
		if !strings.Contains(name, "Signal") && !strings.Contains(name, "Cross") &&
			!strings.Contains(name, "Overbought") && !strings.Contains(name, "Oversold") {
			continue
		}
		col := ext.Columns[name]
		if len(col) == 0 {
			summary[name] = 0
			continue
		}
		last := col[len(col)-1]
		if models.IsMissing(last) {
			summary[name] = 0
			continue
		}
		summary[name] = int(last)
	}
	return summary
}

// SupportResistance finds up to three support and three resistance levels
// from local extrema of the centered rolling low/high.
func (e *IndicatorEngine) SupportResistance(series models.PriceSeries, window int) models.SupportResistance {
	highs := centeredMax(series.Highs(), window)
	lows := centeredMin(series.Lows(), window)

	resistance := localExtrema(highs, centeredMax(highs, window))
	support := localExtrema(lows, centeredMin(lows, window))

	sort.Sort(sort.Reverse(sort.Float64Slice(resistance)))
	if len(resistance) > 3 {
		resistance = resistance[:3]
	}
	sort.Float64s(support)
	if len(support) > 3 {
		support = support[:3]
	}

	return models.SupportResistance{Support: support, Resistance: resistance}
}

// localExtrema picks the values where a smoothed column equals its own
// centered rolling extremum.
func localExtrema(col, extremum []float64) []float64 {
	var out []float64
	for i := range col {
		if models.IsMissing(col[i]) || models.IsMissing(extremum[i]) {
			continue
		}
		if col[i] == extremum[i] {
			out = append(out, col[i])
		}
	}
	return out
}

func typicalPrice(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	return out
}

func flagGreater(col []float64, threshold float64) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		if v > threshold {
			out[i] = 1
		}
	}
	return out
}

func flagLess(col []float64, threshold float64) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		if v < threshold {
			out[i] = 1
		}
	}
	return out
}

func flagPairGreater(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if a[i] > b[i] {
			out[i] = 1
		}
	}
	return out
}

func flagPairLess(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if a[i] < b[i] {
			out[i] = 1
		}
	}
	return out
}
