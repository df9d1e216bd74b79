package services

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/irfandi/market-analyzer-go/internal/models"
)

// maxPrincipalComponents caps the reported explained-variance ratios.
const maxPrincipalComponents = 3

// PortfolioAnalyzer computes cross-asset correlation and diversification
// statistics over the return series of several symbols.
type PortfolioAnalyzer struct {
	logger *logrus.Logger
}

// NewPortfolioAnalyzer creates a portfolio analyzer.
func NewPortfolioAnalyzer(logger *logrus.Logger) *PortfolioAnalyzer {
	return &PortfolioAnalyzer{logger: logger}
}

// Analyze builds the timestamp-aligned return matrix over all given series
// and derives the correlation matrix, the principal-component variance
// decomposition, equal-weight portfolio volatility, and the
// diversification ratio. It returns nil when no usable aligned matrix
// exists (fewer than two rows after alignment).
func (p *PortfolioAnalyzer) Analyze(seriesBySymbol map[string]models.PriceSeries) *models.PortfolioSnapshot {
	symbols := make([]string, 0, len(seriesBySymbol))
	for symbol := range seriesBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	if len(symbols) == 0 {
		return nil
	}

	returns := make([]map[int64]float64, len(symbols))
	for i, symbol := range symbols {
		returns[i] = returnsByDate(seriesBySymbol[symbol])
	}

	dates := alignedDates(returns)
	if len(dates) < 2 {
		p.logger.WithFields(logrus.Fields{
			"symbols": len(symbols),
			"rows":    len(dates),
		}).Warn("insufficient aligned observations for portfolio analysis")
		return nil
	}

	// Row-major aligned return matrix: rows are dates, columns symbols.
	rows, cols := len(dates), len(symbols)
	data := make([]float64, rows*cols)
	for r, date := range dates {
		for c := range symbols {
			data[r*cols+c] = returns[c][date]
		}
	}
	matrix := mat.NewDense(rows, cols, data)

	snapshot := &models.PortfolioSnapshot{
		CorrelationMatrix:    p.correlationMatrix(symbols, matrix),
		PCAExplainedVariance: p.explainedVariance(matrix),
		PortfolioVolatility:  p.portfolioVolatility(matrix),
	}
	snapshot.DiversificationRatio = diversificationRatio(symbols, snapshot.CorrelationMatrix)
	return snapshot
}

func (p *PortfolioAnalyzer) correlationMatrix(symbols []string, matrix mat.Matrix) map[string]map[string]float64 {
	n := len(symbols)
	corr := mat.NewSymDense(n, nil)
	stat.CorrelationMatrix(corr, matrix, nil)

	out := make(map[string]map[string]float64, n)
	for i, a := range symbols {
		out[a] = make(map[string]float64, n)
		for j, b := range symbols {
			v := corr.At(i, j)
			switch {
			case i == j:
				v = 1.0
			case math.IsNaN(v):
				// A zero-variance column; report no co-movement.
				v = 0
			}
			out[a][b] = v
		}
	}
	return out
}

// explainedVariance standardizes the return matrix and reports the
// explained-variance ratios of the leading principal components. The
// scaling is strictly local to this invocation.
func (p *PortfolioAnalyzer) explainedVariance(matrix *mat.Dense) []float64 {
	rows, cols := matrix.Dims()
	standardized := mat.NewDense(rows, cols, nil)
	column := make([]float64, rows)
	for c := 0; c < cols; c++ {
		mat.Col(column, c, matrix)
		mean := stat.Mean(column, nil)
		std := stat.PopStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		for r := 0; r < rows; r++ {
			standardized.Set(r, c, (column[r]-mean)/std)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(standardized, nil); !ok {
		p.logger.Warn("principal component decomposition failed")
		return nil
	}
	variances := pc.VarsTo(nil)
	total := floats.Sum(variances)
	if total <= 0 {
		return nil
	}

	keep := min(maxPrincipalComponents, len(variances))
	ratios := make([]float64, keep)
	for i := 0; i < keep; i++ {
		ratios[i] = variances[i] / total
	}
	return ratios
}

// portfolioVolatility is the annualized sample standard deviation of the
// equal-weighted portfolio return path.
func (p *PortfolioAnalyzer) portfolioVolatility(matrix *mat.Dense) float64 {
	rows, cols := matrix.Dims()
	portfolio := make([]float64, rows)
	for r := 0; r < rows; r++ {
		sum := 0.0
		for c := 0; c < cols; c++ {
			sum += matrix.At(r, c)
		}
		portfolio[r] = sum / float64(cols)
	}
	return stat.StdDev(portfolio, nil) * math.Sqrt(tradingDaysPerYear)
}

// diversificationRatio is 1/(mean_off_diagonal_correlation * sqrt(n)).
// A single asset is fully undiversified by definition (ratio 1); a zero or
// negative mean correlation leaves the ratio undefined, reported as nil
// rather than an infinity.
func diversificationRatio(symbols []string, corr map[string]map[string]float64) *float64 {
	n := len(symbols)
	if n == 1 {
		one := 1.0
		return &one
	}

	var sum float64
	var count int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += corr[symbols[i]][symbols[j]]
			count++
		}
	}
	meanCorr := sum / float64(count)
	if meanCorr <= 0 {
		return nil
	}
	ratio := 1 / (meanCorr * math.Sqrt(float64(n)))
	return &ratio
}

// alignedDates returns the ascending dates present in every return map.
func alignedDates(returns []map[int64]float64) []int64 {
	if len(returns) == 0 {
		return nil
	}
	var dates []int64
	for date := range returns[0] {
		shared := true
		for _, other := range returns[1:] {
			if _, ok := other[date]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}
