package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/service/farm"
)

const userKey = "dashpoultry.user"

// Authenticator checks and rotates the operator credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, plain string) error
	ChangePassword(ctx context.Context, username, current, next string) error
}

// AuthHandler guards the admin routes with HTTP basic auth.
type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewAuthHandler(auth Authenticator, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// Middleware rejects requests without valid basic auth credentials.
func (h *AuthHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="dashpoultry"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": farm.ErrInvalidCredentials.Error()})
			return
		}
		if err := h.auth.Authenticate(c.Request.Context(), user, pass); err != nil {
			if !errors.Is(err, farm.ErrInvalidCredentials) {
				h.logger.Error("authentication failed", zap.Error(err))
			}
			c.Header("WWW-Authenticate", `Basic realm="dashpoultry"`)
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login lets a client check credentials before it starts sending basic auth.
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bind[loginRequest](c)
	if !ok {
		return
	}
	if err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": req.Username})
}

type passwordRequest struct {
	Current string `json:"current_password" binding:"required"`
	New     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	req, ok := bind[passwordRequest](c)
	if !ok {
		return
	}
	err := h.auth.ChangePassword(c.Request.Context(), c.GetString(userKey), req.Current, req.New)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
