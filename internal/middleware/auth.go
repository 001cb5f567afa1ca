package middleware

import (
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/civitech/bikesystem-backend/internal/auth0"
)

// GetClaims extracts the validated JWT claims stored by the auth middleware.
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, bool) {
	claims, ok := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	return claims, ok
}

// GetSubject returns the authenticated subject (sub claim).
func GetSubject(c *gin.Context) (string, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

// RequirePermission aborts with 403 when the token does not carry the given
// permission, and 401 when no validated claims are present at all.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   http.StatusUnauthorized,
				"message": gin.H{"code": "invalid_header", "description": "Authorization malformed"},
			})
			return
		}

		custom, ok := claims.CustomClaims.(*auth0.CustomClaims)
		if !ok || !custom.HasPermission(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   http.StatusForbidden,
				"message": gin.H{"code": "invalid_claims", "description": "Not permitted"},
			})
			return
		}

		c.Next()
	}
}
