package leavetype

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService middleware.RBACService, auth gin.HandlerFunc) {
	types := r.Group("/leave-types")
	types.Use(auth)
	{
		types.GET("", middleware.RBACAuthorize(rbacService, "leave_type", "read"), handler.GetAll)
	}
}
