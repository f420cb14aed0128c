package adapters

import (
	"context"

	"gorm.io/gorm"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/usecase"
)

const rawAppendChunkSize = 1000

type rawCandleGorm struct {
	db *gorm.DB
}

var _ usecase.RawCandleRepository = (*rawCandleGorm)(nil)

// NewRawCandleRepository creates the landing store for exchange records as
// received. Rows are append-only; the only permitted mutation is flipping
// is_processed, so the table doubles as an audit trail.
func NewRawCandleRepository(db *gorm.DB) *rawCandleGorm {
	return &rawCandleGorm{db: db}
}

// RawCandleModel mirrors the kline_5m_raw table. OHLCV fields stay string-typed
// until normalization; there is deliberately no uniqueness constraint.
type RawCandleModel struct {
	ID           uint   `gorm:"primaryKey"`
	DownloadedAt int64  `gorm:"column:downloaded_at"`
	Symbol       string `gorm:"column:symbol"`
	StartTime    string `gorm:"column:start_time"`
	OpenPrice    string `gorm:"column:open_price"`
	HighPrice    string `gorm:"column:high_price"`
	LowPrice     string `gorm:"column:low_price"`
	ClosePrice   string `gorm:"column:close_price"`
	Volume       string `gorm:"column:volume"`
	Turnover     string `gorm:"column:turnover"`
	IsProcessed  bool   `gorm:"column:is_processed"`
}

func (RawCandleModel) TableName() string {
	return "kline_5m_raw"
}

func (r *rawCandleGorm) AppendBatch(ctx context.Context, raws []entity.RawCandle) error {
	if len(raws) == 0 {
		return nil
	}
	ms := make([]RawCandleModel, 0, len(raws))
	for _, e := range raws {
		ms = append(ms, RawCandleModel{
			DownloadedAt: e.DownloadedAt,
			Symbol:       e.Symbol,
			StartTime:    e.StartTime,
			OpenPrice:    e.OpenPrice,
			HighPrice:    e.HighPrice,
			LowPrice:     e.LowPrice,
			ClosePrice:   e.ClosePrice,
			Volume:       e.Volume,
			Turnover:     e.Turnover,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(&ms, rawAppendChunkSize).Error
}

func (r *rawCandleGorm) FetchUnprocessed(ctx context.Context, limit int) ([]entity.RawCandle, error) {
	var rows []RawCandleModel
	err := r.db.WithContext(ctx).
		Where("is_processed = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]entity.RawCandle, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.RawCandle{
			ID:           m.ID,
			DownloadedAt: m.DownloadedAt,
			Symbol:       m.Symbol,
			StartTime:    m.StartTime,
			OpenPrice:    m.OpenPrice,
			HighPrice:    m.HighPrice,
			LowPrice:     m.LowPrice,
			ClosePrice:   m.ClosePrice,
			Volume:       m.Volume,
			Turnover:     m.Turnover,
			IsProcessed:  m.IsProcessed,
		})
	}
	return out, nil
}

func (r *rawCandleGorm) MarkProcessed(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	// The is_processed guard keeps a retried batch from double-counting rows
	// already flipped by an earlier partially-failed run.
	res := r.db.WithContext(ctx).Model(&RawCandleModel{}).
		Where("id IN ? AND is_processed = ?", ids, false).
		Update("is_processed", true)
	return res.RowsAffected, res.Error
}
