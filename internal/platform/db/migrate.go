// Package db provides the database connection and schema migrations.
package db

import (
	"fmt"

	"gorm.io/gorm"

	"crypto_backend/internal/feature/candles/domain/entity"
)

// Migrate creates the schema: one canonical kline table per resolution with a
// unique (symbol, period_start) key, the raw landing table without any
// uniqueness constraint, and the users/instruments tables. DDL is written
// per dialect because the kline tables share one Go model across five tables,
// which gorm's AutoMigrate cannot express with per-table index names.
func Migrate(db *gorm.DB) error {
	pk := "BIGSERIAL PRIMARY KEY"
	ts := "TIMESTAMPTZ"
	num := "NUMERIC(38,8)"
	if db.Dialector.Name() == "sqlite" {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
		ts = "DATETIME"
		// TEXT keeps sqlite from coercing fixed-point values to floats in tests.
		num = "TEXT"
	}

	for _, res := range entity.Resolutions() {
		table := res.TableName()
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id %s,
			symbol VARCHAR(32) NOT NULL,
			period_start %s NOT NULL,
			open_price %s NOT NULL,
			high_price %s NOT NULL,
			low_price %s NOT NULL,
			close_price %s NOT NULL,
			volume %s NOT NULL,
			turnover %s NOT NULL,
			CONSTRAINT uix_%s_symbol_period UNIQUE (symbol, period_start)
		)`, table, pk, ts, num, num, num, num, num, num, table)
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}

	rawDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kline_5m_raw (
		id %s,
		downloaded_at BIGINT NOT NULL,
		symbol VARCHAR(32) NOT NULL,
		start_time VARCHAR(32) NOT NULL,
		open_price VARCHAR(64) NOT NULL,
		high_price VARCHAR(64) NOT NULL,
		low_price VARCHAR(64) NOT NULL,
		close_price VARCHAR(64) NOT NULL,
		volume VARCHAR(64) NOT NULL,
		turnover VARCHAR(64) NOT NULL,
		is_processed BOOLEAN NOT NULL DEFAULT FALSE
	)`, pk)
	if err := db.Exec(rawDDL).Error; err != nil {
		return fmt.Errorf("create kline_5m_raw: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_kline_5m_raw_unprocessed ON kline_5m_raw (is_processed, id)`).Error; err != nil {
		return fmt.Errorf("index kline_5m_raw: %w", err)
	}

	instrumentsDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS instruments (
		id %s,
		symbol VARCHAR(32) NOT NULL,
		base_coin VARCHAR(16),
		quote_coin VARCHAR(16),
		launch_time BIGINT,
		price_scale INTEGER,
		funding_interval INTEGER,
		min_leverage %s,
		max_leverage %s,
		leverage_step %s,
		max_trading_qty %s,
		min_trading_qty %s,
		qty_step %s,
		min_price %s,
		max_price %s,
		tick_size %s,
		CONSTRAINT uix_instruments_symbol UNIQUE (symbol)
	)`, pk, num, num, num, num, num, num, num, num, num)
	if err := db.Exec(instrumentsDDL).Error; err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	usersDDL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
		id %s,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at %s,
		CONSTRAINT uix_users_email UNIQUE (email)
	)`, pk, ts)
	if err := db.Exec(usersDDL).Error; err != nil {
		return fmt.Errorf("create users: %w", err)
	}

	return nil
}
