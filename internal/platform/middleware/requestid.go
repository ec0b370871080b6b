// Package middleware はルーター全体に適用するGinミドルウェアを提供します。
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID はリクエストIDを運ぶヘッダー名です。
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength を超える上流IDは採用しません。
const maxRequestIDLength = 128

type contextKey string

// RequestIDKey はGinコンテキストとcontext.Contextの両方で使うキーです。
const RequestIDKey contextKey = "request_id"

// RequestID は各リクエストに一意のIDを付与し、レスポンスヘッダーと
// リクエストコンテキストに設定します。上流プロキシのIDがあれば引き継ぎます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Header(HeaderRequestID, requestID)
		c.Set(string(RequestIDKey), requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), RequestIDKey, requestID))

		c.Next()
	}
}

// GetRequestID はコンテキストからリクエストIDを取り出します。
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// AccessLog は1リクエストごとに1行のアクセスログをslogで出力します。
// 5xxはError、4xxはWarn、それ以外はInfoで記録します。
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", GetRequestID(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.Error("request", attrs...)
		case status >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	}
}
