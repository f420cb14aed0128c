package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto_backend/internal/feature/candles/adapters"
	symbollistadapters "crypto_backend/internal/feature/symbollist/adapters"
	"crypto_backend/internal/platform/cache"
	platformdb "crypto_backend/internal/platform/db"
	platformredis "crypto_backend/internal/platform/redis"
)

func main() {
	db := platformdb.OpenDB()

	rdb, err := platformredis.NewRedisClient()
	if err != nil {
		log.Fatal("cache warmer requires Redis:", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Println("[ERROR] Failed to close Redis client:", err)
		}
	}()

	candleRepo := adapters.NewCandleRepository(db)
	instrumentRepo := symbollistadapters.NewInstrumentRepository(db)

	refresher := cache.NewRefresher(candleRepo, instrumentRepo, rdb, 5*time.Minute, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher.Start(ctx)
	log.Println("cache warmer started")

	// SIGINT/SIGTERMで進行中の周回を待ってから終了する
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	cancel()
	refresher.Stop()
}
