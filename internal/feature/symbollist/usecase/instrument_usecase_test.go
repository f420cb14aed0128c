package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto_backend/internal/feature/symbollist/domain/entity"
	"crypto_backend/internal/feature/symbollist/usecase"
)

// mockInstrumentRepository はInstrumentRepositoryインターフェースのモック実装です。
type mockInstrumentRepository struct {
	stored  []entity.Instrument
	inserts []entity.Instrument
	updates []entity.Instrument
	deletes []string
	nextID  uint
}

func (m *mockInstrumentRepository) ListAll(context.Context) ([]entity.Instrument, error) {
	return m.stored, nil
}

func (m *mockInstrumentRepository) ListSymbols(context.Context) ([]string, error) {
	symbols := make([]string, 0, len(m.stored))
	for _, s := range m.stored {
		symbols = append(symbols, s.Symbol)
	}
	return symbols, nil
}

func (m *mockInstrumentRepository) Insert(_ context.Context, inst entity.Instrument) error {
	m.nextID++
	inst.ID = m.nextID
	m.inserts = append(m.inserts, inst)
	return nil
}

func (m *mockInstrumentRepository) Update(_ context.Context, inst entity.Instrument) error {
	m.updates = append(m.updates, inst)
	return nil
}

func (m *mockInstrumentRepository) DeleteBySymbols(_ context.Context, symbols []string) error {
	m.deletes = append(m.deletes, symbols...)
	return nil
}

// mockCatalog はCatalogRepositoryインターフェースのモック実装です。
type mockCatalog struct {
	insts []entity.Instrument
	err   error
}

func (m *mockCatalog) ListTradable(context.Context) ([]entity.Instrument, error) {
	return m.insts, m.err
}

func inst(symbol, maxLeverage string) entity.Instrument {
	return entity.Instrument{
		Symbol:      symbol,
		BaseCoin:    symbol[:3],
		QuoteCoin:   "USDT",
		LaunchTime:  1584230400000,
		MaxLeverage: decimal.RequireFromString(maxLeverage),
	}
}

// TestInstrumentUsecase_Sync_Diff は挿入・更新・削除の差分同期を検証します。
func TestInstrumentUsecase_Sync_Diff(t *testing.T) {
	t.Parallel()

	stored := []entity.Instrument{
		inst("BTCUSDT", "100"), // 変更なし
		inst("ETHUSDT", "50"),  // 取引所側でレバレッジ変更
		inst("XRPUSDT", "25"),  // 上場廃止
	}
	stored[0].ID, stored[1].ID, stored[2].ID = 1, 2, 3

	repo := &mockInstrumentRepository{stored: stored, nextID: 3}
	catalog := &mockCatalog{insts: []entity.Instrument{
		inst("BTCUSDT", "100"),
		inst("ETHUSDT", "75"),
		inst("SOLUSDT", "50"), // 新規上場
	}}

	uc := usecase.NewInstrumentUsecase(repo, catalog)
	inserted, updated, deleted, err := uc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, deleted)

	require.Len(t, repo.inserts, 1)
	assert.Equal(t, "SOLUSDT", repo.inserts[0].Symbol)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, "ETHUSDT", repo.updates[0].Symbol)
	assert.Equal(t, uint(2), repo.updates[0].ID, "update must keep the stored row's ID")
	assert.True(t, repo.updates[0].MaxLeverage.Equal(decimal.RequireFromString("75")))

	assert.Equal(t, []string{"XRPUSDT"}, repo.deletes)
}

// TestInstrumentUsecase_Sync_NoChanges は差分がない場合に書き込みが
// 発生しないことを検証します。
func TestInstrumentUsecase_Sync_NoChanges(t *testing.T) {
	t.Parallel()

	stored := []entity.Instrument{inst("BTCUSDT", "100")}
	stored[0].ID = 1

	repo := &mockInstrumentRepository{stored: stored, nextID: 1}
	catalog := &mockCatalog{insts: []entity.Instrument{inst("BTCUSDT", "100")}}

	uc := usecase.NewInstrumentUsecase(repo, catalog)
	inserted, updated, deleted, err := uc.Sync(context.Background())
	require.NoError(t, err)

	assert.Zero(t, inserted)
	assert.Zero(t, updated)
	assert.Zero(t, deleted)
	assert.Empty(t, repo.inserts)
	assert.Empty(t, repo.updates)
	assert.Empty(t, repo.deletes)
}

// TestInstrumentUsecase_Sync_CatalogError は取引所側の失敗で保存済み
// カタログに触れないことを検証します。
func TestInstrumentUsecase_Sync_CatalogError(t *testing.T) {
	t.Parallel()

	repo := &mockInstrumentRepository{stored: []entity.Instrument{inst("BTCUSDT", "100")}}
	catalog := &mockCatalog{err: errors.New("exchange unavailable")}

	uc := usecase.NewInstrumentUsecase(repo, catalog)
	_, _, _, err := uc.Sync(context.Background())
	require.Error(t, err)

	assert.Empty(t, repo.inserts)
	assert.Empty(t, repo.updates)
	assert.Empty(t, repo.deletes, "a failed fetch must not delist stored instruments")
}

// TestInstrumentUsecase_ListSymbols はシンボル一覧の取得を検証します。
func TestInstrumentUsecase_ListSymbols(t *testing.T) {
	t.Parallel()

	repo := &mockInstrumentRepository{stored: []entity.Instrument{
		inst("BTCUSDT", "100"),
		inst("ETHUSDT", "50"),
	}}
	uc := usecase.NewInstrumentUsecase(repo, &mockCatalog{})

	symbols, err := uc.ListSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
}

// TestInstrumentUsecase_ListSymbolsLaunchedBefore は上場日時による絞り込みを検証します。
func TestInstrumentUsecase_ListSymbolsLaunchedBefore(t *testing.T) {
	t.Parallel()

	old := inst("BTCUSDT", "100") // 2020-03-15
	young := inst("NEWUSDT", "25")
	young.LaunchTime = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

	repo := &mockInstrumentRepository{stored: []entity.Instrument{old, young}}
	uc := usecase.NewInstrumentUsecase(repo, &mockCatalog{})

	cutoff := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	symbols, err := uc.ListSymbolsLaunchedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, symbols)

	symbols, err = uc.ListSymbolsLaunchedBefore(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "NEWUSDT"}, symbols)
}
