package main

import (
	"log"
	"os"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"crypto_backend/internal/app/di"
	"crypto_backend/internal/app/router"
	authadapters "crypto_backend/internal/feature/auth/adapters"
	authhandler "crypto_backend/internal/feature/auth/transport/handler"
	authusecase "crypto_backend/internal/feature/auth/usecase"
	candlesadapters "crypto_backend/internal/feature/candles/adapters"
	candleshandler "crypto_backend/internal/feature/candles/transport/handler"
	candlesusecase "crypto_backend/internal/feature/candles/usecase"
	symbollistadapters "crypto_backend/internal/feature/symbollist/adapters"
	symbollisthandler "crypto_backend/internal/feature/symbollist/transport/handler"
	symbollistusecase "crypto_backend/internal/feature/symbollist/usecase"
	"crypto_backend/internal/platform/cache"
	platformdb "crypto_backend/internal/platform/db"
	jwtmw "crypto_backend/internal/platform/jwt"
	platformredis "crypto_backend/internal/platform/redis"
)

func main() {
	// db
	db := platformdb.OpenDB()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository
	userRepo := authadapters.NewUserRepository(db)
	instrumentRepo := symbollistadapters.NewInstrumentRepository(db)
	candleRepo := candlesadapters.NewCandleRepository(db)

	// Redisキャッシュでラップ
	cachedCandleRepo := cache.NewCachingCandleRepository(rdb, 5*time.Minute, candleRepo, "candles")

	// JWT_SECRETチェック（開発中の注意喚起）
	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		log.Println("[WARN] JWT_SECRET is not set. Set a strong secret in production.")
	}

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, jwtmw.NewGenerator(secret, 24*time.Hour))
	symbolUC := symbollistusecase.NewInstrumentUsecase(instrumentRepo, symbollistadapters.NewBybitCatalog(di.NewMarket()))
	candlesUC := candlesusecase.NewCandlesUsecase(cachedCandleRepo)
	gapUC := candlesusecase.NewGapUsecase(candleRepo)

	// Handler
	authH := authhandler.NewAuthHandler(authUC)
	symbolH := symbollisthandler.NewSymbolHandler(symbolUC)
	candlesH := candleshandler.NewCandlesHandler(candlesUC, gapUC)

	// ルータ生成
	router := router.NewRouter(authH, candlesH, symbolH)

	if err := router.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
