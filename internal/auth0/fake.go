package auth0

import (
	"context"
	"net/http"
	"strings"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// FakeVerifier is a test implementation of Verifier. It trusts the
// X-Subject and X-Permissions request headers instead of validating a JWT.
type FakeVerifier struct{}

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{}
}

func (v *FakeVerifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader("X-Subject")
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   http.StatusUnauthorized,
				"message": gin.H{"code": "authorization_header_missing", "description": "Authorization header is expected"},
			})
			return
		}

		var permissions []string
		if raw := c.GetHeader("X-Permissions"); raw != "" {
			permissions = strings.Split(raw, ",")
		}

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: subject},
			CustomClaims:     &CustomClaims{Permissions: permissions},
		}
		ctx := context.WithValue(c.Request.Context(), jwtmiddleware.ContextKey{}, claims)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
