package middleware

import (
	"net/http"
	"sync"
	"time"

	"rtw-settlements/internal/config"
	"rtw-settlements/internal/logger"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：在流量峰值时对入口进行限速，避免缓存与数据库被过载；按配置开关与速率。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int) *TokenBucket {
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wrap：RateLimitEnabled 为 false 时原样返回 next
func Wrap(cfg *config.Config, next http.Handler) http.Handler {
	if cfg == nil || !cfg.RateLimitEnabled {
		return next
	}
	tb := NewTokenBucket(cfg.RateLimitQPS)
	logger.L().Info("rate_limit_enabled", "qps", cfg.RateLimitQPS)
	return limit(tb, next)
}

func limit(tb *TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
