package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は取引所REST API呼び出し用に設定されたHTTPクライアントを
// 作成します。klineのページングでは同一ホストへ連続してリクエストするため、
// keep-aliveで接続を再利用し、ハンドシェイクのやり直しを避けます。
//
// http.DefaultClientにはタイムアウトがないため、外部呼び出しには常に
// このクライアントを使うこと。リクエスト全体のタイムアウトは呼び出し元が
// 渡します。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
