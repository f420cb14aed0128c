package usecase

import (
	"context"
	"time"

	"crypto_backend/internal/feature/candles/domain/entity"
)

// CandleRepository は時間足ごとの正規ローソク足テーブルへのアクセスを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	// UpsertBatch は (symbol, period_start) をキーに挿入し、衝突時は
	// 計測フィールドをすべて上書きします（再ダウンロードの訂正を収束させる既定方針）。
	UpsertBatch(ctx context.Context, res entity.Resolution, candles []entity.Candle) error
	// InsertSkipExisting は衝突時に何もしない純粋冪等の挿入です。
	InsertSkipExisting(ctx context.Context, res entity.Resolution, candles []entity.Candle) error
	// Find は新しい順に最大limit件を返します。
	Find(ctx context.Context, symbol string, res entity.Resolution, limit int) ([]entity.Candle, error)
	// FindRange は [from, to) の範囲を古い順に返します。ゼロ値の境界は無制限を意味します。
	FindRange(ctx context.Context, symbol string, res entity.Resolution, from, to time.Time) ([]entity.Candle, error)
	// LatestPeriodStart はウォーターマーク、すなわち保存済みの最大period_startを返します。
	// 行が存在しない場合は ok=false を返します。
	LatestPeriodStart(ctx context.Context, symbol string, res entity.Resolution) (time.Time, bool, error)
	// ListPeriodStarts は [from, to) に存在するperiod_startを古い順に返します。
	ListPeriodStarts(ctx context.Context, symbol string, res entity.Resolution, from, to time.Time) ([]time.Time, error)
}

// RawCandleRepository は未加工レコードのランディングテーブルを抽象化します。
type RawCandleRepository interface {
	// AppendBatch は未加工レコードを追記します。一意性制約はなく、重複行は共存します。
	AppendBatch(ctx context.Context, raws []entity.RawCandle) error
	// FetchUnprocessed は未処理の行をID順に最大limit件返します。
	FetchUnprocessed(ctx context.Context, limit int) ([]entity.RawCandle, error)
	// MarkProcessed は is_processed = false の行に限って処理済みに反転し、
	// 反転した行数を返します。条件付き更新なので部分失敗後の再実行でも安全です。
	MarkProcessed(ctx context.Context, ids []uint) (int64, error)
}

// TxRunner は1バッチ（Normalizer）または1集約パス（Aggregator）を
// ちょうど1つのストアトランザクションで実行します。fnがエラーを返した場合は
// 全体がロールバックされ、部分的な状態は残りません。
type TxRunner interface {
	InTx(ctx context.Context, fn func(candles CandleRepository, raws RawCandleRepository) error) error
}
