package employee

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
	employees := r.Group("/employees")
	employees.Use(auth)
	{
		employees.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "employee", "read_all"),
			handler.GetAll,
		)

		employees.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "employee", "read"),
			handler.GetByID,
		)

		employees.POST("",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "employee", "create"),
			handler.Register,
		)

		employees.PUT("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "employee", "update"),
			handler.Update,
		)

		employees.DELETE("/:id",
			middleware.RateLimitByUser(0.05, 1),
			middleware.RBACAuthorize(rbacService, "employee", "delete"),
			handler.Delete,
		)

		pictures := employees.Group("/:id/profile-picture")
		pictures.Use(middleware.RBACAuthorize(rbacService, "employee", "picture"))
		pictures.GET("", handler.GetPicture)
		pictures.GET("/raw", handler.GetPictureContent)
		pictures.POST("", middleware.RateLimitByUser(0.2, 2), handler.UploadPicture)
		pictures.DELETE("", handler.DeletePicture)
	}
}
