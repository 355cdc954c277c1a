package balance

import (
	"net/http"

	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/request"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("balance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("balance request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) GetByEmployee(c *gin.Context) {
	employeeID, err := request.ParseID(c, "id")
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	actor := request.GetActor(c)
	if !domain.CanAccessEmployee(actor.Role, actor.EmployeeID, employeeID) {
		h.writeServiceError(c, apperror.ErrForbidden)
		return
	}

	resp, err := h.service.GetByEmployee(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Replace(c *gin.Context) {
	employeeID, err := request.ParseID(c, "id")
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	var req ReplaceBalancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http replace balances validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Replace(c.Request.Context(), employeeID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
