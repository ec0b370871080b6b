package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter は、予測リクエストなどの操作の頻度を制限するインターフェースです。
type Limiter interface {
	Allow() bool
	Wait(ctx context.Context) error
}

// RateLimiter はトークンバケット方式で操作の頻度を制限します。
type RateLimiter struct {
	limiter *rate.Limiter
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter は1秒あたり perSecond 回、最大 burst 回まで連続で許可するRateLimiterを生成します。
// perSecond が0以下の場合は無制限になります。
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Allow は今すぐ操作してよいかを返します。待機はしません。
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait はトークンが得られるかctxが終了するまで待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}
