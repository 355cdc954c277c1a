package middleware

import (
	"errors"
	"strings"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/response"
	"go-leave/internal/shared/token"

	"github.com/gin-gonic/gin"
)

const (
	ContextEmployeeID = "employee_id"
	ContextRole       = "role"
)

// AuthMiddleware accepts a bearer token or the access_token cookie.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				raw = cookie
			}
		}
		if raw == "" {
			response.Abort(c, autherrors.ErrTokenMissing)
			return
		}

		claims, err := token.Parse(secret, raw, token.TypeAccess)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				response.Abort(c, autherrors.ErrTokenExpired)
				return
			}
			response.Abort(c, autherrors.ErrInvalidToken)
			return
		}

		c.Set(ContextEmployeeID, claims.EmployeeID)
		c.Set(ContextRole, claims.Role)
		c.Request = c.Request.WithContext(contextutil.WithEmployeeID(c.Request.Context(), claims.EmployeeID))

		c.Next()
	}
}

func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Abort(c, autherrors.ErrForbidden)
	}
}
