package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar represents one OHLCV trading period.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is a chronologically ordered OHLCV series for one symbol.
// The engine treats a series as immutable input: derived values are always
// produced as new columns on an ExtendedSeries, never written back.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars in the series.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes returns the close column as a fresh slice.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column as a fresh slice.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column as a fresh slice.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column as a fresh slice.
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Validate checks the input contract for an analysis run: a non-empty
// series with positive prices, non-negative volumes and strictly
// increasing unique dates.
func (s PriceSeries) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("series %q: %w", s.Symbol, ErrEmptySeries)
	}
	for i, b := range s.Bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("series %q bar %d (%s): %w", s.Symbol, i, b.Date.Format("2006-01-02"), ErrInvalidPrice)
		}
		if b.Volume < 0 {
			return fmt.Errorf("series %q bar %d (%s): %w", s.Symbol, i, b.Date.Format("2006-01-02"), ErrNegativeVolume)
		}
		if i > 0 && !s.Bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("series %q bar %d (%s): %w", s.Symbol, i, b.Date.Format("2006-01-02"), ErrUnorderedDates)
		}
	}
	return nil
}

// Missing is the in-column marker for an undefined value, used wherever a
// rolling window has insufficient history. It never crosses the report
// boundary.
var Missing = math.NaN()

// IsMissing reports whether a column value is undefined.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// ExtendedSeries is a PriceSeries plus a mapping from indicator name to a
// derived column aligned index-for-index with the source bars.
type ExtendedSeries struct {
	Series  PriceSeries
	Columns map[string][]float64
}

// NewExtendedSeries creates an empty extension around a source series.
func NewExtendedSeries(series PriceSeries) *ExtendedSeries {
	return &ExtendedSeries{
		Series:  series,
		Columns: make(map[string][]float64),
	}
}

// SetColumn attaches a derived column. The column must be aligned with the
// source series.
func (e *ExtendedSeries) SetColumn(name string, values []float64) {
	e.Columns[name] = values
}

// Column returns a derived column by name.
func (e *ExtendedSeries) Column(name string) ([]float64, bool) {
	col, ok := e.Columns[name]
	return col, ok
}

// Latest returns the most recent defined value of a column. The second
// return is false when the column does not exist, is empty, or its last
// value is undefined.
func (e *ExtendedSeries) Latest(name string) (float64, bool) {
	col, ok := e.Columns[name]
	if !ok || len(col) == 0 {
		return 0, false
	}
	v := col[len(col)-1]
	if IsMissing(v) {
		return 0, false
	}
	return v, true
}

// ColumnNames returns all derived column names in sorted order.
func (e *ExtendedSeries) ColumnNames() []string {
	names := make([]string, 0, len(e.Columns))
	for name := range e.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
