// File: internal/middleware/auth.go
package middleware

import (
	"tradepost_backend/internal/common"
	"tradepost_backend/internal/firebase"
	"tradepost_backend/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the Firebase ID token on the request, resolves
// the local user row (provisioning on first sight), and stores the user ID
// and Firebase UID on the context.
func AuthMiddleware(fb *firebase.Service, userService user.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := common.GetTokenFromContext(c)
		if tokenString == "" {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Missing or malformed Authorization header."))
			return
		}

		token, err := fb.VerifyIDToken(c.Request.Context(), tokenString)
		if err != nil {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}

		u, err := userService.GetOrCreateFromFirebaseToken(c.Request.Context(), token)
		if err != nil {
			logger.Error("Failed to resolve user for verified token",
				zap.Error(err),
				zap.String("firebaseUID", token.UID),
			)
			common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not resolve user account."))
			return
		}

		c.Set(common.UserIDKey, u.ID)
		c.Set(common.FirebaseUIDKey, token.UID)
		c.Next()
	}
}
