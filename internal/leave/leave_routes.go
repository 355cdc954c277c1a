package leave

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	auth gin.HandlerFunc,
	idempotency gin.HandlerFunc,
) {
	leaves := r.Group("/leaves")
	leaves.Use(auth)
	{
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "apply"), idempotency, handler.Create)
		leaves.GET("/mine", middleware.RBACAuthorize(rbacService, "leave", "read_own"), handler.GetMine)
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read_all"), handler.GetAll)
		leaves.GET("/export", middleware.RBACAuthorize(rbacService, "leave", "read_all"), handler.Export)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read_own"), handler.GetByID)
		leaves.PUT("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "cancel"), handler.Cancel)
		leaves.PUT("/:id/status", middleware.RBACAuthorize(rbacService, "leave", "decide"), handler.UpdateStatus)
	}
}
