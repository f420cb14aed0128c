// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"crypto_backend/internal/feature/symbollist/domain/entity"
	"crypto_backend/internal/feature/symbollist/usecase"
)

// instrumentGorm はInstrumentRepositoryインターフェースのgorm実装です。
type instrumentGorm struct {
	db *gorm.DB
}

var _ usecase.InstrumentRepository = (*instrumentGorm)(nil)

// NewInstrumentRepository は指定されたDB接続でinstrumentGormリポジトリの新しいインスタンスを生成します。
func NewInstrumentRepository(db *gorm.DB) *instrumentGorm {
	return &instrumentGorm{db: db}
}

// ListAll はすべての銘柄をシンボル順に返します。
func (r *instrumentGorm) ListAll(ctx context.Context) ([]entity.Instrument, error) {
	var insts []entity.Instrument
	if err := r.db.WithContext(ctx).
		Order("symbol ASC").
		Find(&insts).Error; err != nil {
		return nil, err
	}
	return insts, nil
}

// ListSymbols は保存済み銘柄のシンボルのみをシンボル順に返します。
func (r *instrumentGorm) ListSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := r.db.WithContext(ctx).
		Model(&entity.Instrument{}).
		Order("symbol ASC").
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// Insert は新しい銘柄を挿入します。
func (r *instrumentGorm) Insert(ctx context.Context, inst entity.Instrument) error {
	return r.db.WithContext(ctx).Create(&inst).Error
}

// Update は既存の銘柄を全カラム更新します。IDで対象を特定します。
func (r *instrumentGorm) Update(ctx context.Context, inst entity.Instrument) error {
	return r.db.WithContext(ctx).Save(&inst).Error
}

// DeleteBySymbols は指定されたシンボルの銘柄を削除します。
func (r *instrumentGorm) DeleteBySymbols(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("symbol IN ?", symbols).
		Delete(&entity.Instrument{}).Error
}
