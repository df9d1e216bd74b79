package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfandi/market-analyzer-go/internal/models"
	"github.com/irfandi/market-analyzer-go/internal/services"
)

// AnalysisHandler exposes the analytics engine over HTTP. It performs no
// data acquisition and no persistence: callers supply the series, the
// handler validates shape, delegates, and serializes the report.
type AnalysisHandler struct {
	analyzer *services.MarketAnalyzer
	logger   *logrus.Logger
}

// NewAnalysisHandler creates the analysis handler.
func NewAnalysisHandler(analyzer *services.MarketAnalyzer, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, logger: logger}
}

type barPayload struct {
	Date   string  `json:"date" binding:"required"`
	Open   float64 `json:"open" binding:"required,gt=0"`
	High   float64 `json:"high" binding:"required,gt=0"`
	Low    float64 `json:"low" binding:"required,gt=0"`
	Close  float64 `json:"close" binding:"required,gt=0"`
	Volume float64 `json:"volume" binding:"gte=0"`
}

type analysisRequest struct {
	Series    map[string][]barPayload `json:"series" binding:"required"`
	Benchmark string                  `json:"benchmark"`
}

// Analyze handles POST /api/v1/analysis.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series := make(map[string]models.PriceSeries, len(req.Series))
	for symbol, bars := range req.Series {
		converted, err := convertBars(symbol, bars)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		series[symbol] = converted
	}

	report, err := h.analyzer.AnalyzeMarket(c.Request.Context(), services.AnalysisRequest{
		Series:    series,
		Benchmark: req.Benchmark,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Health handles GET /health.
func (h *AnalysisHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

func convertBars(symbol string, payload []barPayload) (models.PriceSeries, error) {
	series := models.PriceSeries{Symbol: symbol, Bars: make([]models.Bar, 0, len(payload))}
	for _, p := range payload {
		date, err := parseBarDate(p.Date)
		if err != nil {
			return series, err
		}
		series.Bars = append(series.Bars, models.Bar{
			Date:   date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return series, nil
}

func parseBarDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid bar date %q", raw)
}

// SetupRoutes registers all HTTP routes.
func SetupRoutes(router *gin.Engine, handler *AnalysisHandler) {
	router.GET("/health", handler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/analysis", handler.Analyze)
	}
}
