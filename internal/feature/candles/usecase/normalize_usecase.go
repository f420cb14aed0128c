package usecase

import (
	"context"
	"log/slog"
	"time"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/shared/lock"
)

const (
	// NormalizeBatchSize は1トランザクションで処理する未加工レコードの上限です。
	NormalizeBatchSize = 10000
)

// NormalizeUsecase はランディングテーブルの未加工レコードをベース時間足の
// 正規ローソク足に変換するユースケース（Candle Normalizer）です。
//
// 1バッチ = 1トランザクション。アップサートと処理済みマークは同一
// トランザクション内で行われ、途中で失敗した場合は全体がロールバックされて
// 次回の呼び出しで再試行されます。正規書き込みなしに未加工レコードが
// 消費済みになることはありません。
type NormalizeUsecase struct {
	tx        TxRunner
	locks     lock.Keyed
	overwrite bool
}

// NewNormalizeUsecase は新しい NormalizeUsecase を作成します。
// overwrite が true（既定の運用）の場合、同一 (symbol, period_start) への
// 再ダウンロードは計測フィールドを上書きして取引所の最新値に収束します。
// false の場合は最初の書き込みが保持されます（純粋冪等）。
func NewNormalizeUsecase(tx TxRunner, locks lock.Keyed, overwrite bool) *NormalizeUsecase {
	return &NormalizeUsecase{tx: tx, locks: locks, overwrite: overwrite}
}

// Run は未処理レコードがなくなるまでバッチを繰り返し、処理した行数を返します。
// バッチ途中のエラーはそのバッチのロールバック後に呼び出し元へ伝播します。
// それまでにコミット済みのバッチは有効なままです。
func (nu *NormalizeUsecase) Run(ctx context.Context) (int, error) {
	release := nu.locks.Lock("normalize/" + string(entity.BaseResolution))
	defer release()

	total := 0
	for {
		n, err := nu.processBatch(ctx)
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
		slog.Info("normalized raw klines", "batch", n, "total", total)
	}
	return total, nil
}

// processBatch は1バッチを処理し、消費した未加工行数を返します。
func (nu *NormalizeUsecase) processBatch(ctx context.Context) (int, error) {
	var consumed int
	err := nu.tx.InTx(ctx, func(candles CandleRepository, raws RawCandleRepository) error {
		batch, err := raws.FetchUnprocessed(ctx, NormalizeBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		consumed = len(batch)

		parsed := make([]entity.Candle, 0, len(batch))
		ids := make([]uint, 0, len(batch))
		// 同一 (symbol, period_start) がバッチ内に複数ある場合は後着を残す。
		// 1つのINSERT文に同一キーを2回含めるとPostgresのON CONFLICTが
		// エラーになるため、文の外で先に畳み込む。
		seen := make(map[string]int, len(batch))
		for _, raw := range batch {
			c, err := raw.Normalize()
			if err != nil {
				// パース不能な行はバッチから除外する。ゼロ値で正規テーブルを
				// 汚さない。行自体は監査のため残し、処理済みにだけする
				// （未処理のまま残すと以降のバッチを埋め続けてしまう）。
				slog.Warn("rejecting malformed raw kline",
					"id", raw.ID, "symbol", raw.Symbol, "error", err)
				ids = append(ids, raw.ID)
				continue
			}
			key := c.Symbol + "/" + c.PeriodStart.Format(time.RFC3339)
			if i, ok := seen[key]; ok {
				parsed[i] = c
			} else {
				seen[key] = len(parsed)
				parsed = append(parsed, c)
			}
			ids = append(ids, raw.ID)
		}

		if nu.overwrite {
			err = candles.UpsertBatch(ctx, entity.BaseResolution, parsed)
		} else {
			err = candles.InsertSkipExisting(ctx, entity.BaseResolution, parsed)
		}
		if err != nil {
			return err
		}

		_, err = raws.MarkProcessed(ctx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	return consumed, nil
}
