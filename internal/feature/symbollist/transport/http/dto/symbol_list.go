// Package dto defines data transfer objects for the symbollist HTTP API.
package dto

// SymbolItem represents an instrument in the API response.
// It contains only the public-facing fields needed by clients.
type SymbolItem struct {
	Symbol    string `json:"symbol"`
	BaseCoin  string `json:"base_coin"`
	QuoteCoin string `json:"quote_coin"`
	TickSize  string `json:"tick_size"`
}
