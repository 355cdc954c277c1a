package balance

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	auth gin.HandlerFunc,
) {
	balances := r.Group("/employees/:id/leave-balances")
	balances.Use(auth)
	{
		balances.GET("", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.GetByEmployee)
		balances.PUT("", middleware.RBACAuthorize(rbacService, "balance", "manage"), handler.Replace)
	}
}
