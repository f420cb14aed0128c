package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"crypto_backend/internal/app/di"
	"crypto_backend/internal/feature/candles/adapters"
	"crypto_backend/internal/feature/candles/usecase"
	symbollistadapters "crypto_backend/internal/feature/symbollist/adapters"
	symbollistusecase "crypto_backend/internal/feature/symbollist/usecase"
	platformdb "crypto_backend/internal/platform/db"
	"crypto_backend/internal/shared/lock"
	"crypto_backend/internal/shared/ratelimiter"
)

const (
	dateLayout = "2006-01-02"
	// aggregateWorkers は銘柄単位の集約を並列実行するワーカー数です。
	aggregateWorkers = 4
)

func main() {
	symbolFlag := flag.String("symbol", "", "ingest a single symbol instead of the stored catalogue")
	startFlag := flag.String("start", "", "first date to backfill (YYYY-MM-DD, UTC)")
	endFlag := flag.String("end", "", "last date to backfill (YYYY-MM-DD, UTC, defaults to -start)")
	flag.Parse()

	db := platformdb.OpenDB()
	market := di.NewMarket()

	rawRepo := adapters.NewRawCandleRepository(db)
	tx := adapters.NewTx(db)
	locks := lock.NewKeyedMutex()

	limiter := ratelimiter.NewRateLimiter(ratelimiter.DefaultLimit, ratelimiter.DefaultInterval)

	ingestUC := usecase.NewIngestUsecase(market, rawRepo, limiter)
	normalizeUC := usecase.NewNormalizeUsecase(tx, locks, true)
	aggregateUC := usecase.NewAggregateUsecase(tx, locks)

	instrumentRepo := symbollistadapters.NewInstrumentRepository(db)
	instrumentUC := symbollistusecase.NewInstrumentUsecase(instrumentRepo, symbollistadapters.NewBybitCatalog(market))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Minute)
	defer cancel()

	symbols, err := resolveSymbols(ctx, *symbolFlag, instrumentUC)
	if err != nil {
		log.Fatal(err)
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols to ingest")
	}

	if *startFlag != "" {
		// 日付指定モード: 指定範囲を1日ずつバックフィルする
		dates, err := parseDates(*startFlag, *endFlag)
		if err != nil {
			log.Fatal(err)
		}
		if err := backfill(ctx, ingestUC, normalizeUC, aggregateUC, instrumentUC, *symbolFlag, dates); err != nil {
			log.Fatal(err)
		}
		log.Println("backfill ok")
		return
	}

	// 日付指定なし: 直近ウィンドウの定期取り込み
	if err := ingestUC.DownloadLatest(ctx, symbols); err != nil {
		log.Fatal(err)
	}
	if _, err := normalizeUC.Run(ctx); err != nil {
		log.Fatal(err)
	}
	if err := aggregateUC.AggregateSymbols(ctx, symbols, aggregateWorkers); err != nil {
		log.Fatal(err)
	}
	log.Println("ingest ok")
}

// resolveSymbols は-symbol指定があればそれを、なければカタログを同期して
// 保存済みの全銘柄を返します。
func resolveSymbols(ctx context.Context, symbol string, uc *symbollistusecase.InstrumentUsecase) ([]string, error) {
	if symbol != "" {
		return []string{symbol}, nil
	}
	if _, _, _, err := uc.Sync(ctx); err != nil {
		return nil, fmt.Errorf("sync instrument catalogue: %w", err)
	}
	return uc.ListSymbols(ctx)
}

// parseDates は[start, end]の各日（UTC日付）を昇順で返します。
func parseDates(start, end string) ([]time.Time, error) {
	from, err := time.ParseInLocation(dateLayout, start, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse -start: %w", err)
	}
	to := from
	if end != "" {
		if to, err = time.ParseInLocation(dateLayout, end, time.UTC); err != nil {
			return nil, fmt.Errorf("parse -end: %w", err)
		}
	}
	if to.Before(from) {
		return nil, fmt.Errorf("-end %s is before -start %s", end, start)
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.Add(24 * time.Hour) {
		dates = append(dates, d)
	}
	return dates, nil
}

// backfill は日ごとにダウンロード・正規化・再集約を行います。
// 銘柄指定がない場合、各日についてその日の終わりまでに上場していた
// 銘柄のみを対象にします。
func backfill(ctx context.Context, ingestUC *usecase.IngestUsecase, normalizeUC *usecase.NormalizeUsecase,
	aggregateUC *usecase.AggregateUsecase, instrumentUC *symbollistusecase.InstrumentUsecase,
	single string, dates []time.Time) error {
	for _, date := range dates {
		symbols := []string{single}
		if single == "" {
			var err error
			if symbols, err = instrumentUC.ListSymbolsLaunchedBefore(ctx, date.Add(24*time.Hour)); err != nil {
				return fmt.Errorf("list symbols for %s: %w", date.Format(dateLayout), err)
			}
		}
		if len(symbols) == 0 {
			log.Printf("no symbols launched before %s, skipping", date.Format(dateLayout))
			continue
		}
		if err := ingestUC.DownloadDate(ctx, symbols, date); err != nil {
			return fmt.Errorf("download %s: %w", date.Format(dateLayout), err)
		}
		if _, err := normalizeUC.Run(ctx); err != nil {
			return fmt.Errorf("normalize %s: %w", date.Format(dateLayout), err)
		}
		for _, symbol := range symbols {
			if err := aggregateUC.AggregateSymbolRange(ctx, symbol, date, date.Add(24*time.Hour)); err != nil {
				return fmt.Errorf("aggregate %s %s: %w", symbol, date.Format(dateLayout), err)
			}
		}
		log.Printf("backfilled %s (%d symbols)", date.Format(dateLayout), len(symbols))
	}
	return nil
}
