// Package http は外向きHTTP呼び出し用のクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// Transport設定
const (
	dialTimeout         = 5 * time.Second
	keepAlive           = 30 * time.Second
	maxIdleConns        = 64
	maxIdleConnsPerHost = 32
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 5 * time.Second
)

// NewHTTPClient は分類APIなど外部呼び出し用のHTTPクライアントを作成します。
// timeout はリクエスト全体の上限です。0以下の場合はタイムアウトなしになるため、
// 呼び出し元は必ず正の値を渡してください。
//
// http.DefaultClient は使用しないこと。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAlive,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
