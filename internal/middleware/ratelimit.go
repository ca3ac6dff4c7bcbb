// File: internal/middleware/ratelimit.go
package middleware

import (
	"fmt"

	"tradepost_backend/internal/common"
	"tradepost_backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RateLimit throttles write-heavy endpoints per authenticated user, falling
// back to the client IP for anonymous traffic. The limiter itself fails
// open, so this middleware only ever rejects on an explicit deny.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, err := common.GetUserIDFromContext(c); err == nil && userID != uuid.Nil {
			key = userID.String()
		}

		result := limiter.Limit(c.Request.Context(), fmt.Sprintf("%s:%s", scope, key))
		if !result.Allowed {
			common.RespondWithError(c, common.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
