// Package auth0 verifies bearer tokens and exposes the permissions claim
// the API's role checks run against.
package auth0

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	adapter "github.com/gwatts/gin-adapter"
)

// CustomClaims carries the permissions granted to the token's subject.
type CustomClaims struct {
	Permissions []string `json:"permissions"`
}

func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

func (c *CustomClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Verifier authenticates inbound requests and attaches validated claims to
// the request context.
type Verifier interface {
	Middleware() gin.HandlerFunc
}

// JWKSVerifier validates RS256 tokens against the tenant's JWKS endpoint.
type JWKSVerifier struct {
	validator *validator.Validator
}

func NewJWKSVerifier(domain, audience string) (*JWKSVerifier, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
	)
	if err != nil {
		return nil, err
	}

	return &JWKSVerifier{validator: v}, nil
}

func (v *JWKSVerifier) Middleware() gin.HandlerFunc {
	mw := jwtmiddleware.New(
		v.validator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)
	return adapter.Wrap(mw.CheckJWT)
}

func errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	code := "invalid_header"
	description := "Unable to parse authorization token"
	if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
		code = "authorization_header_missing"
		description = "Authorization header is expected"
	}

	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   http.StatusUnauthorized,
		"message": map[string]string{"code": code, "description": description},
	})
}
