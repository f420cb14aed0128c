// Package handler はcandlesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/transport/http/dto"
	"crypto_backend/internal/feature/candles/usecase"
)

// CandlesUsecase はローソク足データ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type CandlesUsecase interface {
	GetCandles(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error)
	GetChange(ctx context.Context, symbol string, res entity.Resolution, lookback int) (usecase.ChangeSummary, error)
}

// GapDetector は欠損期間列挙のユースケースインターフェースを定義します。
type GapDetector interface {
	MissingPeriods(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error)
}

// CandlesHandler はローソク足データのHTTPリクエストを処理します。
type CandlesHandler struct {
	uc   CandlesUsecase
	gaps GapDetector
}

// NewCandlesHandler は指定されたusecaseでCandlesHandlerの新しいインスタンスを生成します。
func NewCandlesHandler(uc CandlesUsecase, gaps GapDetector) *CandlesHandler {
	return &CandlesHandler{uc: uc, gaps: gaps}
}

// GetCandlesHandler は銘柄と時間足を受け取り、ローソク足データを新しい順のJSONで返します。
//
// エンドポイント例:
// GET /candles/:symbol?resolution=1h&outputsize=200
func (h *CandlesHandler) GetCandlesHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	res, err := entity.ParseResolution(c.DefaultQuery("resolution", string(entity.Resolution1d)))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	// 不正な値はusecase側で既定値に丸められる
	outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", "200"))

	candles, err := h.uc.GetCandles(c.Request.Context(), symbol, res, outputsize)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, toCandleResponse(x))
	}
	c.JSON(http.StatusOK, out)
}

// GetChangeHandler は直近lookback本の終値変化率サマリーを返します。
//
// エンドポイント例:
// GET /candles/:symbol/change?resolution=1d&lookback=2
func (h *CandlesHandler) GetChangeHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	res, err := entity.ParseResolution(c.DefaultQuery("resolution", string(entity.Resolution1d)))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	lookback, _ := strconv.Atoi(c.DefaultQuery("lookback", "2"))

	sum, err := h.uc.GetChange(c.Request.Context(), symbol, res, lookback)
	if err != nil {
		if errors.Is(err, usecase.ErrNotEnoughCandles) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ChangeResponse{
		Symbol:     sum.Symbol,
		Resolution: string(sum.Resolution),
		From:       sum.From.PeriodStart.UTC().Format(time.RFC3339),
		To:         sum.To.PeriodStart.UTC().Format(time.RFC3339),
		FromClose:  sum.From.Close.String(),
		ToClose:    sum.To.Close.String(),
		ChangePct:  sum.ChangePct.String(),
	})
}

// GetGapsHandler はベース時間足の欠損期間を昇順のJSONで返します。
//
// エンドポイント例:
// GET /candles/:symbol/gaps?start=2024-01-01T00:00:00Z&end=2024-01-02T00:00:00Z
func (h *CandlesHandler) GetGapsHandler(c *gin.Context) {
	symbol := c.Param("symbol")

	var from, to time.Time
	var err error
	if s := c.Query("start"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid start: " + err.Error()})
			return
		}
	}
	if s := c.Query("end"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid end: " + err.Error()})
			return
		}
	}

	missing, err := h.gaps.MissingPeriods(c.Request.Context(), symbol, from, to)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := dto.GapsResponse{Symbol: symbol, Missing: make([]string, 0, len(missing))}
	for _, ps := range missing {
		out.Missing = append(out.Missing, ps.UTC().Format(time.RFC3339))
	}
	c.JSON(http.StatusOK, out)
}

func toCandleResponse(x entity.Candle) dto.CandleResponse {
	return dto.CandleResponse{
		Time:     x.PeriodStart.UTC().Format(time.RFC3339),
		Open:     x.Open.String(),
		High:     x.High.String(),
		Low:      x.Low.String(),
		Close:    x.Close.String(),
		Volume:   x.Volume.String(),
		Turnover: x.Turnover.String(),
	}
}
