package usecase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"crypto_backend/internal/feature/candles/adapters"
	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/usecase"
	platformdb "crypto_backend/internal/platform/db"
	"crypto_backend/internal/shared/lock"
)

// testStore bundles the sqlite-backed store the usecase tests run against.
type testStore struct {
	db      *gorm.DB
	tx      *adapters.Tx
	candles usecase.CandleRepository
	raws    usecase.RawCandleRepository
	locks   lock.Keyed
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// :memory: は接続ごとに別のデータベースになるため、プールを1接続に固定する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, platformdb.Migrate(db), "failed to migrate schema")

	return &testStore{
		db:      db,
		tx:      adapters.NewTx(db),
		candles: adapters.NewCandleRepository(db),
		raws:    adapters.NewRawCandleRepository(db),
		locks:   lock.NewKeyedMutex(),
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

// rawAt は start から i 本目の5分足に相当する未加工レコードを返します。
// 値は本数 i から決定的に導出されるため、期待値の検算が容易です。
func rawAt(start time.Time, i int) entity.RawCandle {
	ms := start.Add(time.Duration(i) * 5 * time.Minute).UnixMilli()
	return entity.RawCandle{
		DownloadedAt: 1700000000,
		Symbol:       "BTCUSDT",
		StartTime:    decimal.NewFromInt(ms).String(),
		OpenPrice:    decimal.NewFromInt(int64(100 + i)).String(),
		HighPrice:    decimal.NewFromInt(int64(110 + i)).String(),
		LowPrice:     decimal.NewFromInt(int64(90 + i)).String(),
		ClosePrice:   decimal.NewFromInt(int64(105 + i)).String(),
		Volume:       "1.5",
		Turnover:     "150.25",
	}
}

// candleAt は rawAt(i) を正規化した結果と同じ5分足を返します。
func candleAt(t *testing.T, start time.Time, i int) entity.Candle {
	c, err := rawAt(start, i).Normalize()
	require.NoError(t, err)
	return c
}
