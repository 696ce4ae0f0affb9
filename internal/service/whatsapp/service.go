package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/config"
	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	client "github.com/mamadbah2/dashpoultry/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// ErrNoManager is returned by Notify when no manager number is configured.
var ErrNoManager = errors.New("whatsapp manager id is not configured")

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Dispatcher executes a parsed quick-entry command.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (models.AutomationReply, error)
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook runs every text command in the payload and answers its sender. Delivery receipts
// are only logged.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, st := range change.Value.Statuses {
				s.logger.Debug("message status", zap.String("message_id", st.ID), zap.String("status", st.Status))
			}

			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, change.Value, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, value models.WebhookValue, msg models.InboundMessage) error {
	if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
		s.logger.Debug("ignoring non-text message", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(msg.Text.Body)
	sender := value.Sender(msg.From)

	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("sender", sender),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, sender)
	if err != nil {
		s.logger.Warn("command rejected", zap.String("command", string(cmd.Type)), zap.Error(err))
		reply = models.AutomationReply{Title: "Command Failed", Message: err.Error()}
	}

	return s.send(ctx, msg.From, reply.Text(), false)
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

// Notify sends text to the configured farm manager.
func (s *MetaWhatsAppService) Notify(ctx context.Context, text string) error {
	if s.cfg.ManagerID == "" {
		return ErrNoManager
	}
	return s.send(ctx, s.cfg.ManagerID, text, false)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, preview bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: preview,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("message sent", zap.String("to", to), zap.String("message_id", resp.MessageID()))
	return nil
}
