package request

import (
	"strconv"

	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// Actor is the authenticated caller placed on the gin context by the auth middleware.
type Actor struct {
	EmployeeID uint
	Role       string
}

func GetActor(c *gin.Context) Actor {
	return Actor{
		EmployeeID: c.GetUint("employee_id"),
		Role:       c.GetString("role"),
	}
}

func ParseID(c *gin.Context, param string) (uint, error) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.InvalidField(param)
	}
	return uint(id), nil
}

func ParseOptionalID(c *gin.Context, query string) (*uint, error) {
	raw := c.Query(query)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, apperror.InvalidField(query)
	}
	v := uint(id)
	return &v, nil
}

func Page(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
