package router

import (
	"github.com/gin-gonic/gin"

	authhandler "crypto_backend/internal/feature/auth/transport/handler"
	candleshandler "crypto_backend/internal/feature/candles/transport/handler"
	symbollisthandler "crypto_backend/internal/feature/symbollist/transport/handler"
	"crypto_backend/internal/platform/http/handler"
	jwtmw "crypto_backend/internal/platform/jwt"
)

func NewRouter(authHandler *authhandler.AuthHandler, candles *candleshandler.CandlesHandler,
	symbol *symbollisthandler.SymbolHandler) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	// 新規ユーザー登録
	r.POST("/signup", authHandler.Signup)
	// ログイン（JWT 発行）
	r.POST("/login", authHandler.Login)

	// 認証必須のルート
	// r.Group("/") でルートグループを作成
	auth := r.Group("/")
	// jwtmw.AuthRequired() ミドルウェアを適用
	// → リクエストヘッダーに JWT が必要になる
	auth.Use(jwtmw.AuthRequired())
	{
		auth.GET("/candles/:symbol", candles.GetCandlesHandler)
		auth.GET("/candles/:symbol/change", candles.GetChangeHandler)
		auth.GET("/candles/:symbol/gaps", candles.GetGapsHandler)
		auth.GET("/symbols", symbol.List)
	}

	return r
}
