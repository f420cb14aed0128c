package usecase

import (
	"context"
	"log/slog"
	"time"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/shared/ratelimiter"
)

// MarketRepository は取引所からローソク足データを取得するリポジトリの
// インターフェイスです。外部APIの実装を抽象化します。
// 失敗は呼び出し側でログされ、そのrunは「新しいデータなし」として扱われます。
type MarketRepository interface {
	// FetchKlines は [start, end] のベース時間足レコードを時刻昇順で返します。
	// フィールドは取引所が返したままの文字列型です。
	FetchKlines(ctx context.Context, symbol string, start, end time.Time) ([]entity.RawCandle, error)
}

// IngestUsecase は取引所からレコードを取得し、ランディングテーブルへ
// 追記するユースケースです。正規化・集約は行いません（呼び出し元が
// Normalize/Aggregate を続けて実行します）。
type IngestUsecase struct {
	market      MarketRepository
	raws        RawCandleRepository
	rateLimiter ratelimiter.RateLimiterInterface
	now         func() time.Time
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, raws RawCandleRepository, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{market: market, raws: raws, rateLimiter: rateLimiter, now: time.Now}
}

// DownloadWindow は指定銘柄群の [start, end] のレコードをダウンロードして
// ランディングテーブルへ追記します。バッチ全体に同一のダウンロード時刻
// （エポック秒）がタグ付けされます。1銘柄の失敗はログに出力して続行します。
func (iu *IngestUsecase) DownloadWindow(ctx context.Context, symbols []string, start, end time.Time) error {
	downloadedAt := iu.now().Unix()

	for _, symbol := range symbols {
		iu.rateLimiter.WaitIfNeeded()

		rows, err := iu.market.FetchKlines(ctx, symbol, start, end)
		if err != nil {
			// 取得失敗はこのrunでは「新しいデータなし」。処理は止めない。
			slog.Error("failed to fetch klines", "symbol", symbol, "error", err)
			continue
		}
		for i := range rows {
			rows[i].Symbol = symbol
			rows[i].DownloadedAt = downloadedAt
		}
		if err := iu.raws.AppendBatch(ctx, rows); err != nil {
			return err
		}
		slog.Info("downloaded klines", "symbol", symbol, "rows", len(rows))
	}
	return nil
}

// DownloadDate は1日分（UTC）をダウンロードします。
func (iu *IngestUsecase) DownloadDate(ctx context.Context, symbols []string, date time.Time) error {
	start := entity.Resolution1d.Floor(date)
	end := start.Add(24*time.Hour - time.Second)
	return iu.DownloadWindow(ctx, symbols, start, end)
}

// DownloadLatest は直近のベース時間足1本分のウィンドウをダウンロードします。
// 日付指定なしの定期実行で使われます。
func (iu *IngestUsecase) DownloadLatest(ctx context.Context, symbols []string) error {
	end := iu.now()
	start := end.Add(-entity.BaseResolution.Duration())
	return iu.DownloadWindow(ctx, symbols, start, end)
}
