package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/server/handlers"
)

// Handlers are the route groups mounted by New. Metrics may be nil.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Farm    *handlers.FarmHandler
	State   *handlers.StateHandler
	Ops     *handlers.OpsHandler
	Webhook *handlers.WebhookHandler
	Metrics http.Handler
}

// New wires the Gin engine with required routes and middlewares. Everything under /api needs
// basic auth; the webhook stays open because Meta authenticates with the verify token.
func New(h Handlers, mode string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	r.GET("/webhook", h.Webhook.Verify)
	r.POST("/webhook", h.Webhook.Receive)

	r.POST("/api/login", h.Auth.Login)

	api := r.Group("/api", h.Auth.Middleware())
	api.PUT("/admin/password", h.Auth.ChangePassword)
	api.POST("/send-message", h.Webhook.SendMessage)
	h.Farm.Register(api)
	h.State.Register(api)
	h.Ops.Register(api)

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
