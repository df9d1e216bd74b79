// Package dataset loads already-fetched OHLCV documents into validated
// price series. It is the engine-side half of the input contract: callers
// acquire data elsewhere and hand it over as CSV
// (Date,Open,High,Low,Close,Volume) or as in-memory bars.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

var requiredColumns = []string{"date", "open", "high", "low", "close", "volume"}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// LoadCSV parses one symbol's OHLCV document. The header must contain the
// Date, Open, High, Low, Close and Volume columns (case-insensitive, any
// order); price fields are parsed as exact decimals before conversion so a
// malformed number fails loudly instead of rounding silently.
func LoadCSV(r io.Reader, symbol string) (models.PriceSeries, error) {
	series := models.PriceSeries{Symbol: symbol}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return series, fmt.Errorf("series %q: %w", symbol, models.ErrEmptySeries)
	}
	if err != nil {
		return series, fmt.Errorf("series %q: failed to read header: %w", symbol, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return series, fmt.Errorf("series %q: column %q: %w", symbol, name, models.ErrMissingField)
		}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return series, fmt.Errorf("series %q line %d: %w", symbol, line, err)
		}

		bar, err := parseBar(record, index)
		if err != nil {
			return series, fmt.Errorf("series %q line %d: %w", symbol, line, err)
		}
		series.Bars = append(series.Bars, bar)
	}

	if err := series.Validate(); err != nil {
		return models.PriceSeries{Symbol: symbol}, err
	}
	return series, nil
}

func parseBar(record []string, index map[string]int) (models.Bar, error) {
	var bar models.Bar

	field := func(name string) (string, error) {
		i := index[name]
		if i >= len(record) {
			return "", fmt.Errorf("column %q: %w", name, models.ErrMissingField)
		}
		return strings.TrimSpace(record[i]), nil
	}

	raw, err := field("date")
	if err != nil {
		return bar, err
	}
	date, err := parseDate(raw)
	if err != nil {
		return bar, err
	}
	bar.Date = date

	for name, dst := range map[string]*float64{
		"open":   &bar.Open,
		"high":   &bar.High,
		"low":    &bar.Low,
		"close":  &bar.Close,
		"volume": &bar.Volume,
	} {
		raw, err := field(name)
		if err != nil {
			return bar, err
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return bar, fmt.Errorf("column %q: invalid number %q: %w", name, raw, err)
		}
		*dst, _ = value.Float64()
	}

	return bar, nil
}

// parseDate parses a bar date in ISO date or RFC 3339 form, normalized to
// UTC.
func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
