package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soundrift/soundrift/internal/auth"
	"github.com/soundrift/soundrift/internal/common"
	"github.com/soundrift/soundrift/internal/models"
)

const (
	UserIDKey = "auth.user_id"
	RoleKey   = "auth.role"
)

func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := auth.ParseJWT(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole gates a group behind an explicit role claim. Admin and owner
// both pass an admin gate; nothing is ever inferred from names or emails.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(RoleKey)
		if !ok {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		role, _ := v.(models.Role)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		if role.Privileged() {
			for _, r := range roles {
				if r == models.RoleAdmin {
					c.Next()
					return
				}
			}
		}
		common.Fail(c, http.StatusForbidden, 40301, "access denied")
		c.Abort()
	}
}
