package middleware

import (
	"net/http"
	"strings"
	"sync"

	"planmate/config"
	"planmate/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	limiters   = make(map[string]*rate.Limiter)
	limitersMu sync.Mutex
)

func limiterFor(ip string) *rate.Limiter {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	if l, ok := limiters[ip]; ok {
		return l
	}
	perMin := config.AppConfig.MaxRequestsPerMin
	if perMin <= 0 {
		perMin = 100
	}
	l := rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)
	limiters[ip] = l
	return l
}

// RateLimiter throttles requests per client IP.
func RateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !limiterFor(ip).Allow() {
			utils.JSONError(c, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

func getClientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return c.ClientIP()
}
