// Package dto defines data transfer objects for the Bybit v5 market API responses.
package dto

// KlineResponse represents the JSON response from the /v5/market/kline endpoint.
// Each entry in Result.List is a 7-tuple of strings:
// [startTime(ms), open, high, low, close, volume, turnover], newest first.
type KlineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string     `json:"category"`
		Symbol   string     `json:"symbol"`
		List     [][]string `json:"list"`
	} `json:"result"`
}

// InstrumentsInfoResponse represents the JSON response from the
// /v5/market/instruments-info endpoint.
type InstrumentsInfoResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category       string           `json:"category"`
		NextPageCursor string           `json:"nextPageCursor"`
		List           []InstrumentInfo `json:"list"`
	} `json:"result"`
}

// InstrumentInfo is a single instrument entry of the instruments-info response.
type InstrumentInfo struct {
	Symbol          string `json:"symbol"`
	ContractType    string `json:"contractType"`
	Status          string `json:"status"`
	BaseCoin        string `json:"baseCoin"`
	QuoteCoin       string `json:"quoteCoin"`
	LaunchTime      string `json:"launchTime"`
	PriceScale      string `json:"priceScale"`
	FundingInterval int    `json:"fundingInterval"`
	LeverageFilter  struct {
		MinLeverage  string `json:"minLeverage"`
		MaxLeverage  string `json:"maxLeverage"`
		LeverageStep string `json:"leverageStep"`
	} `json:"leverageFilter"`
	PriceFilter struct {
		MinPrice string `json:"minPrice"`
		MaxPrice string `json:"maxPrice"`
		TickSize string `json:"tickSize"`
	} `json:"priceFilter"`
	LotSizeFilter struct {
		MaxOrderQty string `json:"maxOrderQty"`
		MinOrderQty string `json:"minOrderQty"`
		QtyStep     string `json:"qtyStep"`
	} `json:"lotSizeFilter"`
}
