// File: internal/common/context_helpers.go
package common

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetTokenFromContext retrieves the bearer token string from the
// Authorization header. Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// GetUserIDFromContext retrieves the authenticated user's ID from the
// Gin context, as set by the auth middleware.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, ErrUnauthorized.WithDetails("User ID not found in context.")
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUnauthorized.WithDetails("User ID in context has an unexpected type.")
	}
	return userID, nil
}

// GetFirebaseUIDFromContext retrieves the Firebase UID from the Gin context.
func GetFirebaseUIDFromContext(c *gin.Context) string {
	val, exists := c.Get(FirebaseUIDKey)
	if !exists {
		return ""
	}
	uid, ok := val.(string)
	if !ok {
		return ""
	}
	return uid
}
