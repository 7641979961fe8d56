package middleware

import (
	"net/http"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	maxTrackedClients = 10000
	clientIdleTTL     = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client IP. Idle clients fall out of
// the LRU and start with a full bucket when they return.
type RateLimiter struct {
	limiters *lru.LRU[string, *rate.Limiter]
	rps      rate.Limit
	burst    int
}

func NewRateLimiter(rps, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: lru.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientIdleTTL),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters.Add(key, l)
	return l
}

// Allow reports whether the client identified by key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			util.ErrorResponse(c, http.StatusTooManyRequests, "Too many requests, please slow down", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
