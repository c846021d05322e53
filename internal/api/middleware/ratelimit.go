package middleware

import (
	"strconv"
	"time"

	"github.com/RussellLuo/slidingwindow"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/artxchange/artx-api/internal/api/handler/v1/response"
)

const defaultMaxClients = 10000

// RateLimiter caps requests per client IP over a sliding window. It guards
// the HTTP surface only; the engine's own caps are enforced elsewhere.
// At most maxClients limiters are kept; the least recently seen client is
// dropped first and starts over with a fresh window.
type RateLimiter struct {
	window  time.Duration
	limit   int64
	clients *lru.Cache[string, *slidingwindow.Limiter]
}

func NewRateLimiter(window time.Duration, limit int64, maxClients int) *RateLimiter {
	if maxClients <= 0 {
		maxClients = defaultMaxClients
	}
	// lru.New only fails for a non-positive size.
	clients, _ := lru.New[string, *slidingwindow.Limiter](maxClients)
	return &RateLimiter{
		window:  window,
		limit:   limit,
		clients: clients,
	}
}

func localWindow() (slidingwindow.Window, slidingwindow.StopFunc) {
	return slidingwindow.NewLocalWindow()
}

func (r *RateLimiter) limiter(key string) *slidingwindow.Limiter {
	if lim, ok := r.clients.Get(key); ok {
		return lim
	}
	lim, _ := slidingwindow.NewLimiter(r.window, r.limit, localWindow)
	if prev, ok, _ := r.clients.PeekOrAdd(key, lim); ok {
		return prev
	}
	return lim
}

func (r *RateLimiter) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if r.limit <= 0 {
			ctx.Next()
			return
		}

		if !r.limiter(ctx.ClientIP()).Allow() {
			ctx.Header("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			response.RenderErr(ctx, response.ErrTooManyRequests(r.window))
			return
		}

		ctx.Next()
	}
}
