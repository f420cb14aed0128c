package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/usecase"
)

// DefaultRefreshCount is how many recent candles per series the refresher keeps warm.
const DefaultRefreshCount = 200

// SymbolLister は更新対象の銘柄一覧を提供します。
type SymbolLister interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// Refresher は銘柄×時間足ごとの直近ローソク足をRedisへ定期的に書き込む
// キャッシュウォーマーです。キーは "{resolution}:{symbol}:{epoch秒}" で、
// 1本のローソク足が1キーに対応します。既に書き込んだ期間は（値が確定して
// いれば）スキップされるため、定常状態では各周回の書き込みは数キーに
// 収まります。
type Refresher struct {
	candles  usecase.CandleRepository
	symbols  SymbolLister
	rdb      *redis.Client
	interval time.Duration
	ttl      time.Duration
	count    int

	mu       sync.Mutex
	lastSeen map[string]string // key -> serialized candle already written

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRefresher は新しい Refresher を作成します。
// interval が0以下の場合は5分、ttl が0以下の場合は24時間が使われます。
func NewRefresher(candles usecase.CandleRepository, symbols SymbolLister, rdb *redis.Client, interval, ttl time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Refresher{
		candles:  candles,
		symbols:  symbols,
		rdb:      rdb,
		interval: interval,
		ttl:      ttl,
		count:    DefaultRefreshCount,
		lastSeen: make(map[string]string),
		stop:     make(chan struct{}),
	}
}

// Start は更新ループをバックグラウンドで開始します。起動直後に1回更新し、
// 以後はinterval間隔で繰り返します。ctxのキャンセルまたはStopで停止します。
func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.RefreshAll(ctx); err != nil {
			slog.Error("cache refresh failed", "error", err)
		}

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				if err := r.RefreshAll(ctx); err != nil {
					slog.Error("cache refresh failed", "error", err)
				}
			}
		}
	}()
}

// Stop は更新ループを停止し、進行中の周回の完了を待ちます。
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
}

// RefreshAll は全銘柄×全時間足の直近ローソク足を1周分キャッシュへ書き込みます。
// 1銘柄の失敗はログに出力して続行します。
func (r *Refresher) RefreshAll(ctx context.Context) error {
	symbols, err := r.symbols.ListSymbols(ctx)
	if err != nil {
		return fmt.Errorf("list symbols: %w", err)
	}

	written := 0
	for _, symbol := range symbols {
		for _, res := range entity.Resolutions() {
			n, err := r.refreshSeries(ctx, symbol, res)
			if err != nil {
				slog.Warn("failed to refresh series", "symbol", symbol, "resolution", res, "error", err)
				continue
			}
			written += n
		}
	}
	slog.Debug("cache refresh cycle complete", "symbols", len(symbols), "keys_written", written)
	return nil
}

// refreshSeries は1系列分をパイプライン化したSETで書き込みます。
func (r *Refresher) refreshSeries(ctx context.Context, symbol string, res entity.Resolution) (int, error) {
	candles, err := r.candles.Find(ctx, symbol, res, r.count)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, nil
	}
	// Findは新しい順なので末尾がウォーム対象の最古の期間
	oldest := candles[len(candles)-1].PeriodStart

	type pending struct {
		key string
		val []byte
	}
	var queued []pending

	r.mu.Lock()
	for _, cd := range candles {
		key := candleKey(res, symbol, cd.PeriodStart)
		b, err := json.Marshal(cd)
		if err != nil {
			continue
		}
		// 値まで一致していれば再書き込みしない。未確定期間の訂正は
		// 値が変わるのでこの比較で拾われる。
		if prev, ok := r.lastSeen[key]; ok && prev == string(b) {
			continue
		}
		queued = append(queued, pending{key: key, val: b})
	}
	r.mu.Unlock()

	if len(queued) == 0 {
		r.pruneSeries(res, symbol, oldest)
		return 0, nil
	}

	pipe := r.rdb.Pipeline()
	for _, p := range queued {
		pipe.Set(ctx, p.key, p.val, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	// 書き込みが確定してから記憶する。失敗した周回のキーを既書き込みと
	// 扱うと、確定済みのローソク足は値が変わらないため二度と再送されない。
	r.mu.Lock()
	for _, p := range queued {
		r.lastSeen[p.key] = string(p.val)
	}
	r.mu.Unlock()
	r.pruneSeries(res, symbol, oldest)
	return len(queued), nil
}

// pruneSeries はウォーム対象のウィンドウから外れた期間の記録を破棄します。
// ウィンドウが進むにつれ無制限に増えるのを防ぎます。
func (r *Refresher) pruneSeries(res entity.Resolution, symbol string, oldest time.Time) {
	prefix := fmt.Sprintf("%s:%s:", res, safe(symbol))
	floor := oldest.Unix()

	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.lastSeen {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		epoch, err := strconv.ParseInt(key[len(prefix):], 10, 64)
		if err != nil || epoch < floor {
			delete(r.lastSeen, key)
		}
	}
}

// candleKey は1本のローソク足に対応するキャッシュキーを返します。
func candleKey(res entity.Resolution, symbol string, periodStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", res, safe(symbol), periodStart.Unix())
}
