package services

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testDate(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

// makeSeries builds a series from closes with a small synthetic high/low
// spread and deterministic volume.
func makeSeries(symbol string, closes []float64) models.PriceSeries {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   testDate(i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000 + float64(i%20)*50,
		}
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}
}

// makeFlatSeries builds a series where open, high, low and close coincide.
func makeFlatSeries(symbol string, closes []float64) models.PriceSeries {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Date: testDate(i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}
}

// seriesFromReturns builds closes starting at 100 and compounding the
// given returns.
func seriesFromReturns(symbol string, returns []float64) models.PriceSeries {
	closes := make([]float64, len(returns)+1)
	closes[0] = 100
	for i, r := range returns {
		closes[i+1] = closes[i] * (1 + r)
	}
	return makeSeries(symbol, closes)
}

// linspace mirrors an evenly spaced grid from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// noisyCloses builds a deterministic wiggly price path.
func noisyCloses(n int) []float64 {
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		price *= 1 + 0.01*math.Sin(float64(i)*0.7) + 0.004*math.Cos(float64(i)*1.9)
		out[i] = price
	}
	return out
}

func sameColumn(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
