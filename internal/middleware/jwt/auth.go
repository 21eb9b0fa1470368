package jwt

import (
	"strings"

	"ClientPulse/pkg/back"
	"ClientPulse/pkg/util/myjwt"
	"ClientPulse/pkg/xerr"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

func Auth(signer *myjwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		claims, err := signer.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			back.Error(c, xerr.ErrUnauthorized.Code, xerr.ErrUnauthorized.Message)
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserId)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole 必须在 Auth 之后使用
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		back.Error(c, xerr.Forbidden, "permission denied")
		c.Abort()
	}
}
