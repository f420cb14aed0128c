package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/shared/lock"
)

// AggregateUsecase は細かい時間足を粗い時間足へロールアップするユースケース
// （Resolution Aggregator）です。階層 5m→15m→1h→4h→1d を段ごとに処理します。
//
// 各段は (symbol, target) 単位でロックを取り、1トランザクションで実行されます。
// ウィンドウは期待本数に一致した場合のみ書き込まれ、不完全なウィンドウは
// スキップされて将来の実行に委ねられます。同一範囲を何度集約しても
// 結果は同一です（冪等）。
type AggregateUsecase struct {
	tx    TxRunner
	locks lock.Keyed
}

// NewAggregateUsecase は新しい AggregateUsecase を作成します。
func NewAggregateUsecase(tx TxRunner, locks lock.Keyed) *AggregateUsecase {
	return &AggregateUsecase{tx: tx, locks: locks}
}

// AggregateSymbol は1銘柄の全階層をソース→ターゲット順に処理します。
// 各段のソースは前段の出力なので、段の順序は入れ替えられません。
// 開始境界はターゲットのウォーターマーク（保存済み最大period_start）から
// 導出され、毎回クエリで再計算されるためクラッシュ後もそのまま再開できます。
func (au *AggregateUsecase) AggregateSymbol(ctx context.Context, symbol string) error {
	for _, step := range entity.RollupSteps() {
		if err := au.aggregateStep(ctx, symbol, step, time.Time{}, time.Time{}); err != nil {
			return fmt.Errorf("aggregate %s %s→%s: %w", symbol, step.Source, step.Target, err)
		}
	}
	return nil
}

// AggregateSymbolRange は明示的な期間 [from, to) で全階層を処理します。
// ウォーターマークより古い期間を再ダウンロードした場合のバックフィルに使います。
func (au *AggregateUsecase) AggregateSymbolRange(ctx context.Context, symbol string, from, to time.Time) error {
	for _, step := range entity.RollupSteps() {
		if err := au.aggregateStep(ctx, symbol, step, from, to); err != nil {
			return fmt.Errorf("aggregate %s %s→%s: %w", symbol, step.Source, step.Target, err)
		}
	}
	return nil
}

// AggregateSymbols は複数銘柄を上限付きワーカープールで並行処理します。
// 銘柄間は独立ですが、同一銘柄内の階層は aggregateStep のロックも含めて
// 直列に実行されます。
func (au *AggregateUsecase) AggregateSymbols(ctx context.Context, symbols []string, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, symbol := range symbols {
		g.Go(func() error {
			if err := au.AggregateSymbol(ctx, symbol); err != nil {
				// 1銘柄の失敗で他の銘柄を止めない
				slog.Error("failed to aggregate symbol", "symbol", symbol, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// aggregateStep は1段分の集約を実行します。from がゼロ値の場合は
// ターゲットのウォーターマークを下限にします。ウォーターマークの
// ウィンドウ自体も再集約対象に含めます（冪等なので安全）。
func (au *AggregateUsecase) aggregateStep(ctx context.Context, symbol string, step entity.RollupStep, from, to time.Time) error {
	release := au.locks.Lock(symbol + "/" + string(step.Target))
	defer release()

	return au.tx.InTx(ctx, func(candles CandleRepository, _ RawCandleRepository) error {
		lower := from
		if lower.IsZero() {
			wm, ok, err := candles.LatestPeriodStart(ctx, symbol, step.Target)
			if err != nil {
				return err
			}
			if ok {
				lower = wm
			}
		}

		source, err := candles.FindRange(ctx, symbol, step.Source, lower, to)
		if err != nil {
			return err
		}
		if len(source) == 0 {
			return nil
		}

		out := rollupComplete(symbol, source, step)
		return candles.UpsertBatch(ctx, step.Target, out)
	})
}

// rollupComplete はソースのローソク足をターゲット境界でグループ化し、
// 期待本数に一致した完全なウィンドウだけを結合して返します。
func rollupComplete(symbol string, source []entity.Candle, step entity.RollupStep) []entity.Candle {
	groups := make(map[time.Time][]entity.Candle)
	for _, c := range source {
		ps := step.Target.Floor(c.PeriodStart)
		groups[ps] = append(groups[ps], c)
	}

	starts := make([]time.Time, 0, len(groups))
	for ps := range groups {
		starts = append(starts, ps)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	out := make([]entity.Candle, 0, len(starts))
	for _, ps := range starts {
		window := groups[ps]
		if len(window) != step.ExpectedCount {
			// 不完全なウィンドウは書き込まない。ソースが揃った後の実行で
			// 同じグループが正しく再導出される。
			slog.Debug("skipping incomplete aggregation window",
				"symbol", symbol, "target", step.Target, "period_start", ps,
				"count", len(window), "expected", step.ExpectedCount)
			continue
		}
		out = append(out, entity.Rollup(window, ps))
	}
	return out
}
