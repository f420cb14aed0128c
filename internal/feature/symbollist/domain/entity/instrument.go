// Package entity defines the domain models for the symbollist feature.
package entity

import "github.com/shopspring/decimal"

// Instrument represents a tradable derivatives contract listed on the
// exchange. Numeric filters are kept as fixed-point decimals so that tick
// sizes and quantity steps survive round-tripping without float drift.
type Instrument struct {
	ID              uint            `gorm:"primaryKey"`
	Symbol          string          `gorm:"size:32;not null;uniqueIndex"`
	BaseCoin        string          `gorm:"size:16"`
	QuoteCoin       string          `gorm:"size:16"`
	LaunchTime      int64           // listing time, epoch milliseconds
	PriceScale      int             `gorm:"column:price_scale"`
	FundingInterval int             // minutes
	MinLeverage     decimal.Decimal `gorm:"type:decimal(38,8)"`
	MaxLeverage     decimal.Decimal `gorm:"type:decimal(38,8)"`
	LeverageStep    decimal.Decimal `gorm:"type:decimal(38,8)"`
	MaxTradingQty   decimal.Decimal `gorm:"type:decimal(38,8)"`
	MinTradingQty   decimal.Decimal `gorm:"type:decimal(38,8)"`
	QtyStep         decimal.Decimal `gorm:"type:decimal(38,8)"`
	MinPrice        decimal.Decimal `gorm:"type:decimal(38,8)"`
	MaxPrice        decimal.Decimal `gorm:"type:decimal(38,8)"`
	TickSize        decimal.Decimal `gorm:"type:decimal(38,8)"`
}

// TableName はgormが使用するテーブル名を返します。
func (Instrument) TableName() string { return "instruments" }

// Same は取引所から取得した値と保存済みの値が一致するかを返します。
// IDは保存側の採番なので比較に含めません。
func (i Instrument) Same(o Instrument) bool {
	return i.Symbol == o.Symbol &&
		i.BaseCoin == o.BaseCoin &&
		i.QuoteCoin == o.QuoteCoin &&
		i.LaunchTime == o.LaunchTime &&
		i.PriceScale == o.PriceScale &&
		i.FundingInterval == o.FundingInterval &&
		i.MinLeverage.Equal(o.MinLeverage) &&
		i.MaxLeverage.Equal(o.MaxLeverage) &&
		i.LeverageStep.Equal(o.LeverageStep) &&
		i.MaxTradingQty.Equal(o.MaxTradingQty) &&
		i.MinTradingQty.Equal(o.MinTradingQty) &&
		i.QtyStep.Equal(o.QtyStep) &&
		i.MinPrice.Equal(o.MinPrice) &&
		i.MaxPrice.Equal(o.MaxPrice) &&
		i.TickSize.Equal(o.TickSize)
}
