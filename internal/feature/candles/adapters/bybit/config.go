// Package bybit はBybit v5マーケットAPIのクライアントを提供します。
package bybit

import (
	"os"
	"time"
)

// DefaultBaseURL はBybit本番APIのベースURLです。
const DefaultBaseURL = "https://api.bybit.com"

// Config はBybit APIクライアントの設定を保持します。
type Config struct {
	BaseURL  string        // APIのベースURL（例: "https://api.bybit.com"）
	Category string        // 商品カテゴリ（"linear"など）
	Timeout  time.Duration // HTTPリクエストタイムアウト
}

// LoadConfig は環境変数からBybitの設定を読み込みます。
func LoadConfig() Config {
	baseURL := os.Getenv("BYBIT_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	category := os.Getenv("BYBIT_CATEGORY")
	if category == "" {
		category = "linear"
	}
	return Config{
		BaseURL:  baseURL,
		Category: category,
		Timeout:  10 * time.Second,
	}
}
