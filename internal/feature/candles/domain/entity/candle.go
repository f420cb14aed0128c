// Package entity はローソク足（OHLCV）ドメインのモデルを定義します。
package entity

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Candle は1期間分の正規化済みOHLCVデータを表します。
// 価格・出来高は繰り返しのロールアップでも丸め誤差が出ないよう
// 固定小数点（DECIMAL(38,8)相当）で保持します。
// (Symbol, PeriodStart) は時間足テーブルごとに一意です。
type Candle struct {
	Symbol      string
	PeriodStart time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
	Turnover    decimal.Decimal
}

// RawCandle は取引所から受信したままの未加工レコードです。
// フィールドは取引所のペイロードが型なしで届くため文字列のまま保持し、
// 正規化時に初めてパースします。同一期間の重複行が共存し得ます。
// 行は削除されず、処理済みフラグの反転のみが許される更新です。
type RawCandle struct {
	ID           uint
	DownloadedAt int64 // download batch timestamp (epoch seconds)
	Symbol       string
	StartTime    string // exchange-native millisecond epoch
	OpenPrice    string
	HighPrice    string
	LowPrice     string
	ClosePrice   string
	Volume       string
	Turnover     string
	IsProcessed  bool
}

// Normalize は未加工レコードをベース時間足の正規ローソク足に変換します。
// パースできないフィールドがあればエラーを返し、部分的に欠けた
// ローソク足を生成することはありません。
func (r RawCandle) Normalize() (Candle, error) {
	ms, err := strconv.ParseInt(r.StartTime, 10, 64)
	if err != nil {
		return Candle{}, fmt.Errorf("parse start time %q: %w", r.StartTime, err)
	}

	c := Candle{
		Symbol:      r.Symbol,
		PeriodStart: BaseResolution.Floor(time.UnixMilli(ms)),
	}

	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"open", r.OpenPrice, &c.Open},
		{"high", r.HighPrice, &c.High},
		{"low", r.LowPrice, &c.Low},
		{"close", r.ClosePrice, &c.Close},
		{"volume", r.Volume, &c.Volume},
		{"turnover", r.Turnover, &c.Turnover},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return Candle{}, fmt.Errorf("parse %s %q: %w", f.name, f.value, err)
		}
		*f.dst = d
	}
	return c, nil
}

// Rollup はターゲット境界にフロアした同一ウィンドウのローソク足群を
// 1本の粗いローソク足に結合します。open/closeは時刻順の先頭/末尾、
// high/lowは最大/最小、volume/turnoverは合計です。
// ウィンドウの完全性チェックは呼び出し側（Aggregator）の責務です。
func Rollup(window []Candle, periodStart time.Time) Candle {
	sorted := make([]Candle, len(window))
	copy(sorted, window)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PeriodStart.Before(sorted[j].PeriodStart)
	})

	out := Candle{
		Symbol:      sorted[0].Symbol,
		PeriodStart: periodStart,
		Open:        sorted[0].Open,
		High:        sorted[0].High,
		Low:         sorted[0].Low,
		Close:       sorted[len(sorted)-1].Close,
		Volume:      decimal.Zero,
		Turnover:    decimal.Zero,
	}
	for _, c := range sorted {
		if c.High.GreaterThan(out.High) {
			out.High = c.High
		}
		if c.Low.LessThan(out.Low) {
			out.Low = c.Low
		}
		out.Volume = out.Volume.Add(c.Volume)
		out.Turnover = out.Turnover.Add(c.Turnover)
	}
	return out
}
