package rbac

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service, auth gin.HandlerFunc) {
	group := r.Group("/rbac")
	group.Use(auth, middleware.RBACAuthorize(service, "role", "read"))
	{
		group.GET("/roles", handler.ListRoles)
		group.POST("/enforce", handler.Enforce)
	}
}
