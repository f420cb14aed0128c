package dto

// TokenResponse は認証成功時にJWTトークンを返すレスポンスボディです。
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse は汎用の成功メッセージレスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse はエラーレスポンスのDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}
