package adapters

import (
	"context"

	"gorm.io/gorm"

	"crypto_backend/internal/feature/candles/usecase"
)

// Tx runs usecase work inside a single database transaction, handing the
// callback repositories bound to that transaction. Any error rolls back the
// whole scope, so a normalizer batch or an aggregation pass never persists
// partial state.
type Tx struct {
	db *gorm.DB
}

var _ usecase.TxRunner = (*Tx)(nil)

func NewTx(db *gorm.DB) *Tx {
	return &Tx{db: db}
}

func (t *Tx) InTx(ctx context.Context, fn func(candles usecase.CandleRepository, raws usecase.RawCandleRepository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewCandleRepository(tx), NewRawCandleRepository(tx))
	})
}
