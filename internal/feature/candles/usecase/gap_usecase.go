package usecase

import (
	"context"
	"time"

	"crypto_backend/internal/feature/candles/domain/entity"
)

// GapUsecase はベース時間足の欠損期間を列挙するユースケース（Gap Detector）です。
// 期待される等間隔の系列と保存済みのperiod_startを突き合わせます。
type GapUsecase struct {
	candles CandleRepository
	now     func() time.Time
}

// NewGapUsecase は新しい GapUsecase を作成します。
func NewGapUsecase(candles CandleRepository) *GapUsecase {
	return &GapUsecase{candles: candles, now: time.Now}
}

// MissingPeriods は [from, to] に期待されるベース時間足のperiod_startのうち、
// 保存されていないものを昇順で返します。ゼロ値の境界は既定値に置き換えられます:
// from は保存済み最古のローソク足、to は現在時刻をベース境界に切り捨てた値。
// 保存済みローソク足が1本もない場合は空を返します。
//
// 判定は保存済み集合に対するセット探索で行い、期待期間数に比例した時間で
// 動作します（期間ごとのクエリは発行しません）。
func (gu *GapUsecase) MissingPeriods(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error) {
	res := entity.BaseResolution

	stored, err := gu.candles.ListPeriodStarts(ctx, symbol, res, from, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}

	existing := make(map[int64]struct{}, len(stored))
	for _, ps := range stored {
		existing[ps.Unix()] = struct{}{}
	}

	lower := from
	if lower.IsZero() {
		lower = stored[0]
	}
	lower = res.Floor(lower)

	upper := to
	if upper.IsZero() {
		upper = gu.now()
	}
	upper = res.Floor(upper)

	var missing []time.Time
	for cur := lower; !cur.After(upper); cur = cur.Add(res.Duration()) {
		if _, ok := existing[cur.Unix()]; !ok {
			missing = append(missing, cur)
		}
	}
	return missing, nil
}

// MissingDates は欠損期間を1つ以上含むカレンダー日付（UTC）を昇順で返します。
// バックフィルは日単位でダウンロードするため、この形が計画に使われます。
func (gu *GapUsecase) MissingDates(ctx context.Context, symbol string, from, to time.Time) ([]time.Time, error) {
	periods, err := gu.MissingPeriods(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for _, ps := range periods {
		day := entity.Resolution1d.Floor(ps)
		if len(dates) == 0 || !dates[len(dates)-1].Equal(day) {
			dates = append(dates, day)
		}
	}
	return dates, nil
}
