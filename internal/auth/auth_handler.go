package auth

import (
	"net/http"
	"strings"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/request"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

type Handler struct {
	service       Service
	secureCookies bool
	logger        *zap.Logger
}

func NewHandler(s Service, secureCookies bool, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: s, secureCookies: secureCookies, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("auth request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// isWebClient reports whether tokens should travel as cookies.
func isWebClient(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("X-Client-Type"), "web")
}

func (h *Handler) setCookies(c *gin.Context, resp TokenResponse) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessCookie,
		Value:    resp.AccessToken,
		Path:     "/",
		MaxAge:   int(resp.ExpiresIn),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookie,
		Value:    resp.RefreshToken,
		Path:     "/",
		MaxAge:   int(RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if isWebClient(c) {
		h.setCookies(c, resp)
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var raw string
	if isWebClient(c) {
		cookie, err := c.Cookie(RefreshCookie)
		if err != nil {
			h.writeServiceError(c, autherrors.ErrTokenMissing)
			return
		}
		raw = cookie
	} else {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
		raw = req.RefreshToken
	}

	resp, err := h.service.RefreshToken(c.Request.Context(), raw)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if isWebClient(c) {
		h.setCookies(c, resp)
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Me(c *gin.Context) {
	actor := request.GetActor(c)
	if actor.EmployeeID == 0 {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.GetMe(c.Request.Context(), actor.EmployeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, nil)
}
