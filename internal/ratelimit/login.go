package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/facture/internal/config"
	"go.uber.org/zap"
)

const keyLogin = "login:%s"

// LoginLimiter throttles credential checks per client address. A nil limiter
// is valid and allows everything, so deployments without Redis keep working.
type LoginLimiter struct {
	log    *zap.Logger
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewLoginLimiter(cfg config.Config, log *zap.Logger) *LoginLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &LoginLimiter{
		log:    log.Named("ratelimit.login"),
		bucket: NewTokenBucket(client),
		rate:   cfg.LoginRate,
		burst:  cfg.LoginBurst,
	}
}

// Allow reports whether another login attempt from clientAddr may proceed.
// Redis failures fail open: an unavailable limiter must not lock everyone
// out.
func (l *LoginLimiter) Allow(ctx context.Context, clientAddr string) bool {
	if l == nil || l.bucket == nil {
		return true
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyLogin, clientAddr), l.rate, l.burst)
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return true
	}
	return res.Allowed
}
