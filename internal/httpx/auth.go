package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/costeo/internal/auth"
)

const claimsKey = "claims"

// Auth accepts the session token as a bearer header or the "token" cookie.
func Auth(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		if raw == "" {
			raw, _ = c.Cookie("token")
		}
		if raw == "" {
			Error(c, http.StatusUnauthorized, "authentication token required")
			return
		}
		claims, err := signer.Parse(raw)
		if err != nil {
			Error(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(claimsKey, claims)
		c.Set("uid", claims.UserID)
		c.Set("tenant", claims.TenantID)
		c.Next()
	}
}

// UserCheck reports whether a user id still exists.
type UserCheck func(ctx context.Context, userID string) (bool, error)

// KnownUser rejects tokens whose user was deleted after the token was issued.
// It runs after Auth.
func KnownUser(check UserCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := check(c.Request.Context(), UserID(c))
		if err != nil {
			_ = c.Error(err)
			Error(c, http.StatusBadGateway, "account service unavailable")
			return
		}
		if !ok {
			Error(c, http.StatusUnauthorized, "user no longer exists")
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := Claims(c)
		if cl == nil {
			Error(c, http.StatusUnauthorized, "authentication token required")
			return
		}
		for _, r := range roles {
			if cl.Role == r {
				c.Next()
				return
			}
		}
		Error(c, http.StatusForbidden, "forbidden")
	}
}

// Claims returns the verified token claims, or nil outside Auth.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	cl, _ := v.(*auth.Claims)
	return cl
}

func TenantID(c *gin.Context) string {
	if cl := Claims(c); cl != nil {
		return cl.TenantID
	}
	return ""
}

func UserID(c *gin.Context) string {
	if cl := Claims(c); cl != nil {
		return cl.UserID
	}
	return ""
}
