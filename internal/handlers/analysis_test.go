package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfandi/market-analyzer-go/internal/services"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	analyzer := services.NewMarketAnalyzer(services.DefaultIndicatorConfig(), logger)
	router := gin.New()
	SetupRoutes(router, NewAnalysisHandler(analyzer, logger))
	return router
}

func payloadBars(n int, start float64) []map[string]any {
	bars := make([]map[string]any, n)
	price := start
	for i := range bars {
		price *= 1 + 0.002*float64(i%5-2)
		bars[i] = map[string]any{
			"date":   fmt.Sprintf("2024-%02d-%02d", 1+i/28, 1+i%28),
			"open":   price,
			"high":   price * 1.01,
			"low":    price * 0.99,
			"close":  price,
			"volume": 1000.0,
		}
	}
	return bars
}

func postAnalysis(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := testRouter()

	rec := postAnalysis(t, router, map[string]any{
		"series": map[string]any{
			"AAA": payloadBars(60, 100),
			"BBB": payloadBars(60, 50),
			"SPY": payloadBars(60, 400),
		},
		"benchmark": "SPY",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Symbols   map[string]json.RawMessage `json:"symbols"`
		Errors    map[string]string          `json:"errors"`
		Benchmark string                     `json:"benchmark"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Symbols, 2)
	assert.Contains(t, report.Symbols, "AAA")
	assert.Contains(t, report.Symbols, "BBB")
	assert.Empty(t, report.Errors)
	assert.Equal(t, "SPY", report.Benchmark)
}

func TestAnalyzeEndpointMissingSeries(t *testing.T) {
	router := testRouter()

	rec := postAnalysis(t, router, map[string]any{"benchmark": "SPY"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpointBadDate(t *testing.T) {
	router := testRouter()

	bars := payloadBars(12, 100)
	bars[3]["date"] = "03/05/2024"
	rec := postAnalysis(t, router, map[string]any{
		"series": map[string]any{"AAA": bars},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid bar date")
}

func TestAnalyzeEndpointRejectsNonPositivePrice(t *testing.T) {
	router := testRouter()

	bars := payloadBars(12, 100)
	bars[5]["close"] = -1.0
	rec := postAnalysis(t, router, map[string]any{
		"series": map[string]any{"AAA": bars},
	})

	// Binding enforces gt=0 on prices before the engine ever runs.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpointBenchmarkOnly(t *testing.T) {
	router := testRouter()

	rec := postAnalysis(t, router, map[string]any{
		"series":    map[string]any{"SPY": payloadBars(30, 400)},
		"benchmark": "SPY",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseBarDateLayouts(t *testing.T) {
	d, err := parseBarDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	d, err = parseBarDate("2024-03-05T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 14, d.Hour())

	_, err = parseBarDate("05.03.2024")
	assert.Error(t, err)
}
