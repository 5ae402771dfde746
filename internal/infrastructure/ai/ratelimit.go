package ai

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimited 在 Provider 前加令牌桶，超出速率的调用排队等待
type RateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimited perMinute 为每分钟调用数，burst 为突发容量（<=0 时取 1）
func NewRateLimited(next Provider, perMinute, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}
}

func (r *RateLimited) Generate(ctx context.Context, persona string, turns []Turn) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		zap.L().Warn("ai rate limiter wait failed", zap.String("persona", persona), zap.Error(err))
		return "", err
	}
	return r.next.Generate(ctx, persona, turns)
}

var _ Provider = (*RateLimited)(nil)
