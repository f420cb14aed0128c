package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/usecase"
)

// TestCandlesUsecase_GetCandles は新しい順の取得と件数の正規化を検証します。
func TestCandlesUsecase_GetCandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var cs []entity.Candle
	for i := 0; i < 5; i++ {
		cs = append(cs, candleAt(t, start, i))
	}
	require.NoError(t, s.candles.UpsertBatch(ctx, entity.Resolution5m, cs))

	cu := usecase.NewCandlesUsecase(s.candles)

	got, err := cu.GetCandles(ctx, "BTCUSDT", entity.Resolution5m, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].PeriodStart.Equal(start.Add(20*time.Minute)), "newest first")
	assert.True(t, got[2].PeriodStart.Equal(start.Add(10*time.Minute)))

	// 不正な件数は既定値に丸められる（保存数が少ないので全件返る）
	all, err := cu.GetCandles(ctx, "BTCUSDT", entity.Resolution5m, -1)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	over, err := cu.GetCandles(ctx, "BTCUSDT", entity.Resolution5m, usecase.MaxOutputSize+1)
	require.NoError(t, err)
	assert.Len(t, over, 5)
}

// TestCandlesUsecase_GetChange は直近2本の終値変化率の計算を検証します。
func TestCandlesUsecase_GetChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := candleAt(t, start, 0)
	newer := candleAt(t, start, 1)
	older.Close = dec(t, "200")
	newer.Close = dec(t, "210")
	require.NoError(t, s.candles.UpsertBatch(ctx, entity.Resolution5m, []entity.Candle{older, newer}))

	cu := usecase.NewCandlesUsecase(s.candles)
	sum, err := cu.GetChange(ctx, "BTCUSDT", entity.Resolution5m, 2)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", sum.Symbol)
	assert.Equal(t, entity.Resolution5m, sum.Resolution)
	assert.True(t, sum.From.PeriodStart.Equal(start))
	assert.True(t, sum.To.PeriodStart.Equal(start.Add(5*time.Minute)))
	// (210-200)/200*100 = 5%
	assert.True(t, sum.ChangePct.Equal(dec(t, "5")), "change = %s", sum.ChangePct)
}

// TestCandlesUsecase_GetChange_Lookback は lookback が2本より先の
// ローソク足を基準にすることを検証します。
func TestCandlesUsecase_GetChange_Lookback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var cs []entity.Candle
	for i := 0; i < 4; i++ {
		c := candleAt(t, start, i)
		cs = append(cs, c)
	}
	cs[0].Close = dec(t, "100") // 最古（lookback=4 の基準）
	cs[3].Close = dec(t, "125") // 最新
	require.NoError(t, s.candles.UpsertBatch(ctx, entity.Resolution5m, cs))

	cu := usecase.NewCandlesUsecase(s.candles)
	sum, err := cu.GetChange(ctx, "BTCUSDT", entity.Resolution5m, 4)
	require.NoError(t, err)
	assert.True(t, sum.From.PeriodStart.Equal(start))
	assert.True(t, sum.ChangePct.Equal(dec(t, "25")), "change = %s", sum.ChangePct)

	// lookback < 2 は既定値2に丸められる
	sum2, err := cu.GetChange(ctx, "BTCUSDT", entity.Resolution5m, 0)
	require.NoError(t, err)
	assert.True(t, sum2.From.PeriodStart.Equal(start.Add(10*time.Minute)))
}

// TestCandlesUsecase_GetChange_NotEnough は保存本数が不足している場合の
// エラーを検証します。
func TestCandlesUsecase_GetChange_NotEnough(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cu := usecase.NewCandlesUsecase(s.candles)

	_, err := cu.GetChange(ctx, "BTCUSDT", entity.Resolution5m, 2)
	assert.ErrorIs(t, err, usecase.ErrNotEnoughCandles)

	require.NoError(t, s.candles.UpsertBatch(ctx, entity.Resolution5m, []entity.Candle{candleAt(t, start, 0)}))
	_, err = cu.GetChange(ctx, "BTCUSDT", entity.Resolution5m, 2)
	assert.ErrorIs(t, err, usecase.ErrNotEnoughCandles)
}
