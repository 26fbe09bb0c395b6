package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/personnel_accounting/pkg/logger"
	"github.com/personnel_accounting/pkg/utils"
)

// Context keys set by JWTMiddleware.
const (
	KeyUserID   = "userID"
	KeyUsername = "username"
	KeyRole     = "role"
	KeyJTI      = "jti"
	KeyExpires  = "exp"
)

// JWTMiddleware validates the Bearer token of the Authorization header and
// stores its claims in the gin context.
func JWTMiddleware(issuer *TokenIssuer, denylist Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondUnauthorizedError(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.RespondUnauthorizedError(c, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := issuer.Parse(parts[1])
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenMalformed):
				utils.RespondUnauthorizedError(c, "Token is malformed")
			case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
				utils.RespondUnauthorizedError(c, "Token is expired or not valid yet")
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				utils.RespondUnauthorizedError(c, "Invalid token signature")
			case errors.Is(err, ErrMissingJTI):
				utils.RespondUnauthorizedError(c, err.Error())
			default:
				utils.RespondUnauthorizedError(c, "Invalid token: "+err.Error())
			}
			return
		}

		denied, err := denylist.Contains(c.Request.Context(), claims.ID)
		if err != nil {
			logger.FromContext(c.Request.Context()).WithError(err).Error("denylist lookup failed")
			utils.RespondInternalServerError(c, "Token check failed")
			return
		}
		if denied {
			utils.RespondUnauthorizedError(c, "Token has been invalidated (logged out)")
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(KeyExpires, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}
