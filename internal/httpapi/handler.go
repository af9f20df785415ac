package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dhawalhost/googlesignin/internal/authflow"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// LoginRunner runs sign-in attempts.
type LoginRunner interface {
	Login(ctx context.Context) (authflow.AuthenticatedUser, error)
	DemoMode() bool
	Config() authflow.AuthConfig
}

// CallbackForwarder relays the provider redirect to the backend.
type CallbackForwarder interface {
	HandleGoogleCallback(ctx context.Context, code, state string) (json.RawMessage, error)
}

// Handler represents the HTTP API handlers for Google sign-in.
type Handler struct {
	login     LoginRunner
	forwarder CallbackForwarder
	logger    *zap.Logger
	validate  *validator.Validate
}

// NewHandler creates a new Handler.
func NewHandler(login LoginRunner, forwarder CallbackForwarder, logger *zap.Logger) *Handler {
	return &Handler{login: login, forwarder: forwarder, logger: logger, validate: validator.New()}
}

// RegisterRoutes registers the sign-in routes. callbackLimiter guards the
// redirect callback, which is the only route reachable by the provider.
func (h *Handler) RegisterRoutes(router gin.IRouter, callbackLimiter gin.HandlerFunc) {
	api := router.Group("/api/auth/google")
	api.GET("/config", h.config)
	api.POST("/login", h.startLogin)

	router.GET("/auth/google/callback", callbackLimiter, h.callback)
}

type configResponse struct {
	authflow.AuthConfig
	DemoMode bool `json:"demo_mode"`
}

func (h *Handler) config(c *gin.Context) {
	c.JSON(http.StatusOK, configResponse{AuthConfig: h.login.Config(), DemoMode: h.login.DemoMode()})
}

func (h *Handler) startLogin(c *gin.Context) {
	user, err := h.login.Login(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type callbackQuery struct {
	Code             string `form:"code" validate:"required"`
	State            string `form:"state" validate:"required"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}

func (h *Handler) callback(c *gin.Context) {
	var q callbackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Error("Failed to bind callback query", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if q.Error != "" {
		h.logger.Warn("Google callback returned error",
			zap.String("error", q.Error),
			zap.String("description", q.ErrorDescription),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": q.Error, "error_description": q.ErrorDescription})
		return
	}

	if err := h.validate.Struct(q); err != nil {
		h.logger.Error("Callback query validation failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and state are required"})
		return
	}

	body, err := h.forwarder.HandleGoogleCallback(c.Request.Context(), q.Code, q.State)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var flowErr *authflow.Error
	switch {
	case errors.As(err, &flowErr):
		resp := gin.H{"error": flowErr.Code, "error_description": err.Error()}
		if flowErr.StatusCode != 0 {
			resp["backend_status"] = flowErr.StatusCode
		}
		c.JSON(flowErr.HTTPStatus(), resp)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request_canceled"})
	default:
		h.logger.Error("Unexpected sign-in error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}
