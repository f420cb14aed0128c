// Package di provides dependency injection factories for creating application components.
package di

import (
	"crypto_backend/internal/feature/candles/adapters/bybit"
	infrahttp "crypto_backend/internal/platform/http"
)

// NewMarket creates a fully configured Bybit market client with HTTP client.
func NewMarket() *bybit.Market {
	cfg := bybit.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return bybit.NewMarket(cfg, httpClient)
}
