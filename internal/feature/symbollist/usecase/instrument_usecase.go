// Package usecase implements the business logic for instrument catalogue operations.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"crypto_backend/internal/feature/symbollist/domain/entity"
)

// InstrumentRepository abstracts the persistence layer for the instrument catalogue.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type InstrumentRepository interface {
	ListAll(ctx context.Context) ([]entity.Instrument, error)
	ListSymbols(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, inst entity.Instrument) error
	Update(ctx context.Context, inst entity.Instrument) error
	DeleteBySymbols(ctx context.Context, symbols []string) error
}

// CatalogRepository は取引所の銘柄カタログを取得するリポジトリのインターフェースです。
type CatalogRepository interface {
	// ListTradable は現在取引可能な銘柄の一覧を返します。
	ListTradable(ctx context.Context) ([]entity.Instrument, error)
}

// InstrumentUsecase provides business logic for instrument catalogue operations.
type InstrumentUsecase struct {
	repo    InstrumentRepository
	catalog CatalogRepository
}

// NewInstrumentUsecase creates a new InstrumentUsecase.
func NewInstrumentUsecase(repo InstrumentRepository, catalog CatalogRepository) *InstrumentUsecase {
	return &InstrumentUsecase{repo: repo, catalog: catalog}
}

// ListInstruments returns all stored instruments ordered by symbol.
func (u *InstrumentUsecase) ListInstruments(ctx context.Context) ([]entity.Instrument, error) {
	return u.repo.ListAll(ctx)
}

// ListSymbols returns the stored instrument symbols ordered alphabetically.
func (u *InstrumentUsecase) ListSymbols(ctx context.Context) ([]string, error) {
	return u.repo.ListSymbols(ctx)
}

// ListSymbolsLaunchedBefore はtより前に上場した銘柄のみを返します。
// 過去日付のバックフィルで、当時まだ存在しなかった銘柄への無駄な
// リクエストを避けるために使われます。
func (u *InstrumentUsecase) ListSymbolsLaunchedBefore(ctx context.Context, t time.Time) ([]string, error) {
	all, err := u.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := t.UnixMilli()
	var symbols []string
	for _, inst := range all {
		if inst.LaunchTime < cutoff {
			symbols = append(symbols, inst.Symbol)
		}
	}
	return symbols, nil
}

// Sync は取引所カタログと保存済みカタログの差分同期を行います。
// 新規銘柄は挿入、値の変わった銘柄は更新、上場廃止された銘柄は削除します。
// 件数はログに出力され、戻り値でも返されます。
func (u *InstrumentUsecase) Sync(ctx context.Context) (inserted, updated, deleted int, err error) {
	fetched, err := u.catalog.ListTradable(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	stored, err := u.repo.ListAll(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	existing := make(map[string]entity.Instrument, len(stored))
	for _, s := range stored {
		existing[s.Symbol] = s
	}

	seen := make(map[string]struct{}, len(fetched))
	for _, f := range fetched {
		seen[f.Symbol] = struct{}{}
		cur, ok := existing[f.Symbol]
		if !ok {
			if err := u.repo.Insert(ctx, f); err != nil {
				return inserted, updated, deleted, err
			}
			inserted++
			continue
		}
		if !cur.Same(f) {
			f.ID = cur.ID
			if err := u.repo.Update(ctx, f); err != nil {
				return inserted, updated, deleted, err
			}
			updated++
		}
	}

	var gone []string
	for _, s := range stored {
		if _, ok := seen[s.Symbol]; !ok {
			gone = append(gone, s.Symbol)
		}
	}
	if len(gone) > 0 {
		if err := u.repo.DeleteBySymbols(ctx, gone); err != nil {
			return inserted, updated, deleted, err
		}
		deleted = len(gone)
	}

	slog.Info("instrument catalogue synced",
		"fetched", len(fetched), "inserted", inserted, "updated", updated, "deleted", deleted)
	return inserted, updated, deleted, nil
}
