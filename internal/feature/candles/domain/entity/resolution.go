package entity

import (
	"fmt"
	"time"
)

// Resolution はローソク足の固定期間（時間足）を表します。
type Resolution string

const (
	Resolution5m  Resolution = "5m"
	Resolution15m Resolution = "15m"
	Resolution1h  Resolution = "1h"
	Resolution4h  Resolution = "4h"
	Resolution1d  Resolution = "1d"
)

// BaseResolution は取引所からダウンロードする最小の時間足です。
// 上位の時間足はすべてここからロールアップで導出されます。
const BaseResolution = Resolution5m

var resolutionDurations = map[Resolution]time.Duration{
	Resolution5m:  5 * time.Minute,
	Resolution15m: 15 * time.Minute,
	Resolution1h:  time.Hour,
	Resolution4h:  4 * time.Hour,
	Resolution1d:  24 * time.Hour,
}

// Resolutions は細かい順に並んだ全時間足を返します。
func Resolutions() []Resolution {
	return []Resolution{Resolution5m, Resolution15m, Resolution1h, Resolution4h, Resolution1d}
}

// ParseResolution は文字列を検証済みのResolutionに変換します。
func ParseResolution(s string) (Resolution, error) {
	r := Resolution(s)
	if _, ok := resolutionDurations[r]; !ok {
		return "", fmt.Errorf("unknown resolution %q", s)
	}
	return r, nil
}

// Duration は時間足1本分の長さを返します。
func (r Resolution) Duration() time.Duration {
	return resolutionDurations[r]
}

// Floor は時刻をこの時間足の境界に切り捨てます。計算はすべてUTC基準です。
func (r Resolution) Floor(t time.Time) time.Time {
	return t.UTC().Truncate(r.Duration())
}

// TableName はこの時間足の正規テーブル名を返します。
func (r Resolution) TableName() string {
	return "kline_" + string(r)
}

// RollupStep は集約階層の1段（ソース時間足→ターゲット時間足）を表します。
// ExpectedCount は直上の親に対するソース本数であり、ベース時間足に対する
// 本数ではありません。ウィンドウがこの本数に満たない限り集約しません。
type RollupStep struct {
	Source        Resolution
	Target        Resolution
	ExpectedCount int
}

// RollupSteps は 5m→15m→1h→4h→1d の階層をソース→ターゲット順で返します。
func RollupSteps() []RollupStep {
	return []RollupStep{
		{Source: Resolution5m, Target: Resolution15m, ExpectedCount: 3},
		{Source: Resolution15m, Target: Resolution1h, ExpectedCount: 4},
		{Source: Resolution1h, Target: Resolution4h, ExpectedCount: 4},
		{Source: Resolution4h, Target: Resolution1d, ExpectedCount: 6},
	}
}
