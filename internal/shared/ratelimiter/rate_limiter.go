// Package ratelimiter は外部APIへのリクエスト頻度を制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter は interval あたり limit 回までの呼び出しを許可します。
type RateLimiter struct {
	name    string
	limit   int
	limiter *rate.Limiter
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit または interval が0以下の場合は制限なしになります。
func NewRateLimiter(name string, limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{name: name, limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := interval / time.Duration(limit)
	return &RateLimiter{
		name:    name,
		limit:   limit,
		limiter: rate.NewLimiter(rate.Every(every), limit),
	}
}

// Wait はレートリミットの上限に達している場合、トークンが補充されるまで待機します。
// ctx がキャンセルされた場合はエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Tokens() < 1 {
		slog.Debug("rate limit reached, waiting", "limiter", rl.name, "limit", rl.limit)
	}
	return rl.limiter.Wait(ctx)
}

// Unlimited はWaitで待機しないリミッターを返します。テストや制限不要なソース向けです。
func Unlimited() *RateLimiter {
	return NewRateLimiter("unlimited", 0, 0)
}
