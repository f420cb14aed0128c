package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/usecase"
)

type candleGorm struct {
	db *gorm.DB
}

var _ usecase.CandleRepository = (*candleGorm)(nil)

// NewCandleRepository creates a repository over the per-resolution kline tables.
// The same model is mapped onto each table via entity.Resolution.TableName().
func NewCandleRepository(db *gorm.DB) *candleGorm {
	return &candleGorm{db: db}
}

// CandleModel mirrors the canonical kline tables (one per resolution, identical
// columns). Prices and volumes are NUMERIC(38,8); (symbol, period_start) is unique.
type CandleModel struct {
	ID          uint            `gorm:"primaryKey"`
	Symbol      string          `gorm:"column:symbol"`
	PeriodStart time.Time       `gorm:"column:period_start"`
	OpenPrice   decimal.Decimal `gorm:"column:open_price"`
	HighPrice   decimal.Decimal `gorm:"column:high_price"`
	LowPrice    decimal.Decimal `gorm:"column:low_price"`
	ClosePrice  decimal.Decimal `gorm:"column:close_price"`
	Volume      decimal.Decimal `gorm:"column:volume"`
	Turnover    decimal.Decimal `gorm:"column:turnover"`
}

func toCandleModel(e entity.Candle) CandleModel {
	return CandleModel{
		Symbol:      e.Symbol,
		PeriodStart: e.PeriodStart.UTC(),
		OpenPrice:   e.Open,
		HighPrice:   e.High,
		LowPrice:    e.Low,
		ClosePrice:  e.Close,
		Volume:      e.Volume,
		Turnover:    e.Turnover,
	}
}

func fromCandleModel(m CandleModel) entity.Candle {
	return entity.Candle{
		Symbol:      m.Symbol,
		PeriodStart: m.PeriodStart.UTC(),
		Open:        m.OpenPrice,
		High:        m.HighPrice,
		Low:         m.LowPrice,
		Close:       m.ClosePrice,
		Volume:      m.Volume,
		Turnover:    m.Turnover,
	}
}

var conflictColumns = []clause.Column{{Name: "symbol"}, {Name: "period_start"}}

var measurementColumns = []string{
	"open_price", "high_price", "low_price", "close_price", "volume", "turnover",
}

func (r *candleGorm) UpsertBatch(ctx context.Context, res entity.Resolution, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toCandleModel(e))
	}

	return r.db.WithContext(ctx).Table(res.TableName()).Clauses(clause.OnConflict{
		Columns:   conflictColumns,
		DoUpdates: clause.AssignmentColumns(measurementColumns),
	}).Create(&ms).Error
}

func (r *candleGorm) InsertSkipExisting(ctx context.Context, res entity.Resolution, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toCandleModel(e))
	}

	return r.db.WithContext(ctx).Table(res.TableName()).Clauses(clause.OnConflict{
		Columns:   conflictColumns,
		DoNothing: true,
	}).Create(&ms).Error
}

func (r *candleGorm) Find(ctx context.Context, symbol string, res entity.Resolution, limit int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).Table(res.TableName()).
		Where("symbol = ?", symbol).
		Order("period_start DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromCandleModels(rows), nil
}

func (r *candleGorm) FindRange(ctx context.Context, symbol string, res entity.Resolution, from, to time.Time) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).Table(res.TableName()).
		Where("symbol = ?", symbol).
		Order("period_start ASC")
	if !from.IsZero() {
		q = q.Where("period_start >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("period_start < ?", to.UTC())
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromCandleModels(rows), nil
}

func (r *candleGorm) LatestPeriodStart(ctx context.Context, symbol string, res entity.Resolution) (time.Time, bool, error) {
	var row CandleModel
	err := r.db.WithContext(ctx).Table(res.TableName()).
		Where("symbol = ?", symbol).
		Order("period_start DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return row.PeriodStart.UTC(), true, nil
}

func (r *candleGorm) ListPeriodStarts(ctx context.Context, symbol string, res entity.Resolution, from, to time.Time) ([]time.Time, error) {
	q := r.db.WithContext(ctx).Table(res.TableName()).
		Where("symbol = ?", symbol).
		Order("period_start ASC")
	if !from.IsZero() {
		q = q.Where("period_start >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("period_start < ?", to.UTC())
	}

	var ts []time.Time
	if err := q.Pluck("period_start", &ts).Error; err != nil {
		return nil, err
	}
	for i := range ts {
		ts[i] = ts[i].UTC()
	}
	return ts, nil
}

func fromCandleModels(rows []CandleModel) []entity.Candle {
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, fromCandleModel(m))
	}
	return out
}
