package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	bybitdto "crypto_backend/internal/feature/candles/adapters/bybit/dto"
	"crypto_backend/internal/feature/symbollist/domain/entity"
	"crypto_backend/internal/feature/symbollist/usecase"
)

// InstrumentsFetcher is the slice of the exchange client this adapter needs.
type InstrumentsFetcher interface {
	FetchInstruments(ctx context.Context) ([]bybitdto.InstrumentInfo, error)
}

// bybitCatalog はBybitのinstruments-infoレスポンスを銘柄エンティティへ
// 変換するCatalogRepository実装です。
type bybitCatalog struct {
	fetcher InstrumentsFetcher
}

var _ usecase.CatalogRepository = (*bybitCatalog)(nil)

// NewBybitCatalog は指定された取引所クライアントでbybitCatalogの新しいインスタンスを生成します。
func NewBybitCatalog(fetcher InstrumentsFetcher) *bybitCatalog {
	return &bybitCatalog{fetcher: fetcher}
}

// ListTradable は現在取引可能（status=Trading）な銘柄の一覧を返します。
// パースできないエントリはログに出力してスキップします。
func (c *bybitCatalog) ListTradable(ctx context.Context) ([]entity.Instrument, error) {
	infos, err := c.fetcher.FetchInstruments(ctx)
	if err != nil {
		return nil, err
	}

	insts := make([]entity.Instrument, 0, len(infos))
	for _, info := range infos {
		if info.Status != "Trading" {
			continue
		}
		inst, err := toInstrument(info)
		if err != nil {
			slog.Warn("skipping unparseable instrument", "symbol", info.Symbol, "error", err)
			continue
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

func toInstrument(info bybitdto.InstrumentInfo) (entity.Instrument, error) {
	launch, err := strconv.ParseInt(info.LaunchTime, 10, 64)
	if err != nil {
		return entity.Instrument{}, fmt.Errorf("parse launch time %q: %w", info.LaunchTime, err)
	}
	scale := 0
	if info.PriceScale != "" {
		if scale, err = strconv.Atoi(info.PriceScale); err != nil {
			return entity.Instrument{}, fmt.Errorf("parse price scale %q: %w", info.PriceScale, err)
		}
	}

	inst := entity.Instrument{
		Symbol:          info.Symbol,
		BaseCoin:        info.BaseCoin,
		QuoteCoin:       info.QuoteCoin,
		LaunchTime:      launch,
		PriceScale:      scale,
		FundingInterval: info.FundingInterval,
	}

	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"minLeverage", info.LeverageFilter.MinLeverage, &inst.MinLeverage},
		{"maxLeverage", info.LeverageFilter.MaxLeverage, &inst.MaxLeverage},
		{"leverageStep", info.LeverageFilter.LeverageStep, &inst.LeverageStep},
		{"maxOrderQty", info.LotSizeFilter.MaxOrderQty, &inst.MaxTradingQty},
		{"minOrderQty", info.LotSizeFilter.MinOrderQty, &inst.MinTradingQty},
		{"qtyStep", info.LotSizeFilter.QtyStep, &inst.QtyStep},
		{"minPrice", info.PriceFilter.MinPrice, &inst.MinPrice},
		{"maxPrice", info.PriceFilter.MaxPrice, &inst.MaxPrice},
		{"tickSize", info.PriceFilter.TickSize, &inst.TickSize},
	} {
		if f.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return entity.Instrument{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = v
	}
	return inst, nil
}
