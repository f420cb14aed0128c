package dto

// ErrorResponse はエラーレスポンスのDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// CandleResponse はロウソク足データのレスポンスDTOです。
// 価格・出来高は精度を保つため10進文字列で返します。
type CandleResponse struct {
	Time     string `json:"time"`     // 期間開始時刻（UTC, RFC3339）
	Open     string `json:"open"`     // 始値
	High     string `json:"high"`     // 高値
	Low      string `json:"low"`      // 安値
	Close    string `json:"close"`    // 終値
	Volume   string `json:"volume"`   // 出来高
	Turnover string `json:"turnover"` // 売買代金
}

// ChangeResponse は終値の変化率サマリーのレスポンスDTOです。
type ChangeResponse struct {
	Symbol     string `json:"symbol"`
	Resolution string `json:"resolution"`
	From       string `json:"from"`       // 基準ローソク足の期間開始時刻
	To         string `json:"to"`         // 最新ローソク足の期間開始時刻
	FromClose  string `json:"from_close"` // 基準終値
	ToClose    string `json:"to_close"`   // 最新終値
	ChangePct  string `json:"change_pct"` // 変化率（％）
}

// GapsResponse は欠損期間一覧のレスポンスDTOです。
type GapsResponse struct {
	Symbol  string   `json:"symbol"`
	Missing []string `json:"missing"` // 欠損しているベース期間の開始時刻（UTC, RFC3339）
}
