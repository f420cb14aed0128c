package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/transport/handler"
	"crypto_backend/internal/feature/candles/usecase"
)

// mockCandlesUsecase はCandlesUsecaseインターフェースのモック実装です。
type mockCandlesUsecase struct {
	GetCandlesFunc func(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error)
	GetChangeFunc  func(ctx context.Context, symbol string, res entity.Resolution, lookback int) (usecase.ChangeSummary, error)
}

func (m *mockCandlesUsecase) GetCandles(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error) {
	return m.GetCandlesFunc(ctx, symbol, res, outputsize)
}

func (m *mockCandlesUsecase) GetChange(ctx context.Context, symbol string, res entity.Resolution, lookback int) (usecase.ChangeSummary, error) {
	return m.GetChangeFunc(ctx, symbol, res, lookback)
}

// mockGapDetector はGapDetectorインターフェースのモック実装です。
type mockGapDetector struct {
	MissingPeriodsFunc func(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error)
}

func (m *mockGapDetector) MissingPeriods(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error) {
	return m.MissingPeriodsFunc(ctx, symbol, from, to)
}

func mustDec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCandle(start time.Time) entity.Candle {
	return entity.Candle{
		Symbol:      "BTCUSDT",
		PeriodStart: start,
		Open:        mustDec("100"),
		High:        mustDec("110"),
		Low:         mustDec("90"),
		Close:       mustDec("105.5"),
		Volume:      mustDec("1.5"),
		Turnover:    mustDec("150.25"),
	}
}

// TestCandlesHandler_GetCandlesHandler はGetCandlesHandlerのHTTPリクエスト/レスポンス処理をテストします。
func TestCandlesHandler_GetCandlesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		url            string
		mockGetCandles func(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error)
		expectedStatus int
		expectedBody   string // JSON文字列として比較
	}{
		{
			name: "success: all parameters specified",
			url:  "/candles/BTCUSDT?resolution=1h&outputsize=10",
			mockGetCandles: func(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error) {
				assert.Equal(t, "BTCUSDT", symbol)
				assert.Equal(t, entity.Resolution1h, res)
				assert.Equal(t, 10, outputsize)
				return []entity.Candle{testCandle(testTime)}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"time":"2024-01-01T00:00:00Z","open":"100","high":"110","low":"90","close":"105.5","volume":"1.5","turnover":"150.25"}]`,
		},
		{
			name: "success: default parameter values",
			url:  "/candles/BTCUSDT",
			mockGetCandles: func(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error) {
				assert.Equal(t, entity.Resolution1d, res) // デフォルト値
				assert.Equal(t, 200, outputsize)          // デフォルト値
				return []entity.Candle{}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "error: unknown resolution",
			url:  "/candles/BTCUSDT?resolution=2h",
			mockGetCandles: func(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error) {
				t.Fatal("usecase must not be called for an invalid resolution")
				return nil, nil
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error: usecase returns error",
			url:  "/candles/BTCUSDT",
			mockGetCandles: func(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error) {
				return nil, assert.AnError
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewCandlesHandler(
				&mockCandlesUsecase{GetCandlesFunc: tt.mockGetCandles},
				&mockGapDetector{},
			)
			r := gin.New()
			r.GET("/candles/:symbol", h.GetCandlesHandler)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

// TestCandlesHandler_GetChangeHandler は変化率サマリーエンドポイントをテストします。
func TestCandlesHandler_GetChangeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock := &mockCandlesUsecase{
		GetChangeFunc: func(ctx context.Context, symbol string, res entity.Resolution, lookback int) (usecase.ChangeSummary, error) {
			assert.Equal(t, "BTCUSDT", symbol)
			assert.Equal(t, entity.Resolution1d, res)
			assert.Equal(t, 2, lookback)
			older := testCandle(from)
			newer := testCandle(to)
			older.Close = mustDec("200")
			newer.Close = mustDec("210")
			return usecase.ChangeSummary{
				Symbol:     symbol,
				Resolution: res,
				From:       older,
				To:         newer,
				ChangePct:  mustDec("5"),
			}, nil
		},
	}

	h := handler.NewCandlesHandler(mock, &mockGapDetector{})
	r := gin.New()
	r.GET("/candles/:symbol/change", h.GetChangeHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/candles/BTCUSDT/change", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"symbol": "BTCUSDT",
		"resolution": "1d",
		"from": "2024-01-01T00:00:00Z",
		"to": "2024-01-02T00:00:00Z",
		"from_close": "200",
		"to_close": "210",
		"change_pct": "5"
	}`, w.Body.String())
}

// TestCandlesHandler_GetChangeHandler_NotEnough は保存本数不足時の404をテストします。
func TestCandlesHandler_GetChangeHandler_NotEnough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mock := &mockCandlesUsecase{
		GetChangeFunc: func(ctx context.Context, symbol string, res entity.Resolution, lookback int) (usecase.ChangeSummary, error) {
			return usecase.ChangeSummary{}, usecase.ErrNotEnoughCandles
		},
	}

	h := handler.NewCandlesHandler(mock, &mockGapDetector{})
	r := gin.New()
	r.GET("/candles/:symbol/change", h.GetChangeHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/candles/BTCUSDT/change", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestCandlesHandler_GetGapsHandler は欠損期間エンドポイントをテストします。
func TestCandlesHandler_GetGapsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		url            string
		mockMissing    func(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: bounds forwarded and gaps returned",
			url:  "/candles/BTCUSDT/gaps?start=2024-01-01T00:00:00Z&end=2024-01-01T00:15:00Z",
			mockMissing: func(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error) {
				assert.True(t, from.Equal(start))
				assert.True(t, to.Equal(start.Add(15*time.Minute)))
				return []time.Time{start.Add(10 * time.Minute)}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":"BTCUSDT","missing":["2024-01-01T00:10:00Z"]}`,
		},
		{
			name: "success: no gaps",
			url:  "/candles/BTCUSDT/gaps",
			mockMissing: func(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error) {
				assert.True(t, from.IsZero())
				assert.True(t, to.IsZero())
				return nil, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":"BTCUSDT","missing":[]}`,
		},
		{
			name:           "error: invalid start",
			url:            "/candles/BTCUSDT/gaps?start=not-a-time",
			mockMissing:    nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewCandlesHandler(
				&mockCandlesUsecase{},
				&mockGapDetector{MissingPeriodsFunc: tt.mockMissing},
			)
			r := gin.New()
			r.GET("/candles/:symbol/gaps", h.GetGapsHandler)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}
