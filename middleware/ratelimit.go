package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"wallet/config"

	"github.com/gin-gonic/gin"
)

// slidingWindow 按客户端 IP 记录窗口内的请求时间
type slidingWindow struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

func newSlidingWindow(limit int, window time.Duration) *slidingWindow {
	return &slidingWindow{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// allow 返回是否放行，以及被拒绝时需要等待的时间
func (w *slidingWindow) allow(key string) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	kept := prune(w.hits[key], now.Add(-w.window))
	if len(kept) >= w.limit {
		w.hits[key] = kept
		return false, kept[0].Add(w.window).Sub(now)
	}
	w.hits[key] = append(kept, now)
	return true, 0
}

func (w *slidingWindow) cleanup() {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.window)
	for key, ts := range w.hits {
		kept := prune(ts, cutoff)
		if len(kept) == 0 {
			delete(w.hits, key)
		} else {
			w.hits[key] = kept
		}
	}
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// AuthRateLimit 认证接口限流（登录、忘记密码）
// 每个 IP 在窗口内最多 AuthAttempts 次，超出返回 429
func AuthRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	w := newSlidingWindow(cfg.AuthAttempts, cfg.Window())

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			w.cleanup()
		}
	}()

	return func(c *gin.Context) {
		ok, retryAfter := w.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "请求过于频繁，请稍后再试",
			})
			return
		}
		c.Next()
	}
}
