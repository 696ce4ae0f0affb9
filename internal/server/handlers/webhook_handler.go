package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	service "github.com/mamadbah2/dashpoultry/internal/service/whatsapp"
)

// WebhookHandler handles inbound and outbound WhatsApp HTTP events. A nil service means the
// channel is not configured and every route answers 503.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

func (h *WebhookHandler) enabled(c *gin.Context) bool {
	if h.svc == nil {
		writeError(c, ErrChannelDisabled)
		return false
	}
	return true
}

// Verify responds to Meta's webhook verification challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	resp, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook verification failed", zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, resp)
}

// Receive ingests webhook callbacks. Meta retries on non-2xx, so processing faults still answer 200.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("failed processing webhook", zap.Error(err))
	}
	c.Status(http.StatusOK)
}

func (h *WebhookHandler) SendMessage(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}
	c.Status(http.StatusAccepted)
}
