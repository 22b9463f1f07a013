package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Rate-limit bucket names used by the gate endpoints.
const (
	RLEntitlementsCheck = "entitlements_check"
	RLWidgetRequest     = "widget_request"
	RLPlanInvalidate    = "plan_invalidate"
)

// RateLimiter is the adapter's limiter interface; see ratelimit/memory.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// AllowNamed checks the limiter for this request. The key is the caller id
// when authenticated, the client IP otherwise. A nil limiter always allows.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	key := c.GetString("gate.caller_id")
	if key == "" {
		key = c.ClientIP()
	}
	ok, err := rl.AllowNamed(bucket, key)
	if err != nil {
		// Limiter trouble should not take the API down.
		return true
	}
	return ok
}

func TooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
}

func BadRequest(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code})
}

func Unauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
}

func Forbidden(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code})
}

func NotFound(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": code})
}

func ServerErr(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": code})
}
