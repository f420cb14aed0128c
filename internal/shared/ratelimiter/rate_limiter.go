// Package ratelimiter は取引所APIへの送信頻度を制限します。
package ratelimiter

import (
	"log/slog"
	"time"
)

// Bybitのパブリックv5 RESTの上限（IPあたり600req/5s）よりかなり保守的な
// 既定値。数時間かかるバックフィルでも同一IPの他の利用に余裕を残します。
const (
	DefaultLimit    = 300
	DefaultInterval = time.Minute
)

// RateLimiterInterface は、取引所API呼び出しの頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiter は固定ウィンドウ方式で呼び出し回数を数えます。
type RateLimiter struct {
	limit     int           // 1ウィンドウあたりの上限
	interval  time.Duration // ウィンドウ幅
	count     int
	lastReset time.Time
}

// NewRateLimiter は interval あたり limit 回まで許可するリミッターを作成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
	}
}

// WaitIfNeeded は上限に達している場合、ウィンドウが切り替わるまでブロックします。
func (rl *RateLimiter) WaitIfNeeded() {
	now := time.Now()
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		sleep := rl.interval - now.Sub(rl.lastReset)
		if sleep > 0 {
			slog.Warn("rate limit reached, pausing requests", "limit", rl.limit, "sleep", sleep)
			time.Sleep(sleep)
		}
		rl.count = 1
		rl.lastReset = time.Now()
	}
}
