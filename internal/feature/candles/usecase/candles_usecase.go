// Package usecase はローソク足データ操作のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"crypto_backend/internal/feature/candles/domain/entity"
)

const (
	// DefaultOutputSize はデフォルトのローソク足返却件数です。
	DefaultOutputSize = 200
	// MaxOutputSize はローソク足の最大返却件数です。
	MaxOutputSize = 5000
	// DefaultChangeLookback は変化率サマリーの既定の参照本数です。
	DefaultChangeLookback = 2
)

// ErrNotEnoughCandles は変化率の計算に必要な本数が保存されていない場合のエラーです。
var ErrNotEnoughCandles = errors.New("not enough candles stored")

// ChangeSummary は直近lookback本のローソク足に対する終値の変化率サマリーです。
type ChangeSummary struct {
	Symbol     string
	Resolution entity.Resolution
	From       entity.Candle
	To         entity.Candle
	ChangePct  decimal.Decimal
}

// candlesUsecase はローソク足データ読み取りのユースケースを定義します。
type candlesUsecase struct {
	candle CandleRepository
}

// NewCandlesUsecase はcandlesUsecaseの新しいインスタンスを生成します。
func NewCandlesUsecase(candle CandleRepository) *candlesUsecase {
	return &candlesUsecase{candle: candle}
}

// GetCandles は指定された銘柄と時間足のローソク足データを新しい順に返します。
func (cu *candlesUsecase) GetCandles(ctx context.Context, symbol string, res entity.Resolution, outputsize int) ([]entity.Candle, error) {
	if outputsize <= 0 || outputsize > MaxOutputSize {
		outputsize = DefaultOutputSize
	}
	return cu.candle.Find(ctx, symbol, res, outputsize)
}

// GetChange は直近lookback本の終値同士の変化率（％）を計算します。
func (cu *candlesUsecase) GetChange(ctx context.Context, symbol string, res entity.Resolution, lookback int) (ChangeSummary, error) {
	if lookback < 2 {
		lookback = DefaultChangeLookback
	}

	cs, err := cu.candle.Find(ctx, symbol, res, lookback)
	if err != nil {
		return ChangeSummary{}, err
	}
	if len(cs) < 2 {
		return ChangeSummary{}, ErrNotEnoughCandles
	}

	// Find は新しい順なので末尾が最古
	newest, oldest := cs[0], cs[len(cs)-1]
	if oldest.Close.IsZero() {
		return ChangeSummary{}, ErrNotEnoughCandles
	}
	pct := newest.Close.Sub(oldest.Close).
		Div(oldest.Close).
		Mul(decimal.NewFromInt(100)).
		Round(8)

	return ChangeSummary{
		Symbol:     symbol,
		Resolution: res,
		From:       oldest,
		To:         newest,
		ChangePct:  pct,
	}, nil
}
