package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookbridge/bookbridge-backend/internal/clients/redis"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/ctxutil"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

const rateLimitWindow = time.Minute

// Requests per minute by plan.
var planLimits = map[string]int64{
	usertypes.PlanFree:       10,
	usertypes.PlanPremium:    50,
	usertypes.PlanEnterprise: 100,
}

type RateLimitMiddleware struct {
	log   *logger.Logger
	cache redis.Cache
}

func NewRateLimitMiddleware(log *logger.Logger, cache redis.Cache) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		log:   log.With("middleware", "RateLimitMiddleware"),
		cache: cache,
	}
}

// Limit enforces a fixed per-minute window keyed by user, or by client IP
// when no user is on the request context. Runs after RequireAuth so the plan
// is already available.
func (rl *RateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())

		plan := usertypes.PlanFree
		key := "ratelimit:ip:" + c.ClientIP()
		if rd != nil && rd.UserID != uuid.Nil {
			plan = rd.Plan
			key = "ratelimit:" + rd.UserID.String()
		}

		limit, ok := planLimits[plan]
		if !ok {
			limit = planLimits[usertypes.PlanFree]
		}

		count, remaining, err := rl.cache.IncrWindow(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			// Redis outages degrade to unlimited rather than blocking reads.
			rl.log.Warn("Rate limit check failed", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		left := limit - count
		if left < 0 {
			left = 0
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", left))

		if count > limit {
			retryAfter := int(remaining.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"message": fmt.Sprintf("rate limit exceeded, retry in %ds", retryAfter),
					"code":    "rate_limited",
				},
			})
			return
		}
		c.Next()
	}
}
