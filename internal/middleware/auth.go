package middleware

import (
	"net/http"
	"os"
	"strings"

	"expenseflow/internal/model"
	"expenseflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequirePrincipal
const (
	CtxSubjectID     = "subjectID"
	CtxPrincipalKind = "principalKind"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// Claims is the token payload shared by admin and user principals.
// Subject is a company id for admins and a user id for users.
type Claims struct {
	Kind string `json:"kind"` // admin or user
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = jwt.ErrTokenUnverifiable
		}
		return nil, err
	}
	return claims, nil
}

// RequirePrincipal validates the bearer token and checks that its principal
// kind is one of allowedKinds. The subject id and kind are stored on the
// gin context for handlers.
func RequirePrincipal(allowedKinds ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		kindAllowed := false
		for _, kind := range allowedKinds {
			if claims.Kind == kind {
				kindAllowed = true
				break
			}
		}
		if !kindAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(CtxSubjectID, claims.Subject)
		c.Set(CtxPrincipalKind, claims.Kind)

		c.Next()
	}
}

// RequireAdmin gates a route group to company-admin tokens.
func RequireAdmin() gin.HandlerFunc {
	return RequirePrincipal(model.PrincipalAdmin)
}

// RequireUser gates a route group to user tokens.
func RequireUser() gin.HandlerFunc {
	return RequirePrincipal(model.PrincipalUser)
}
