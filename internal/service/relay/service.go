package relay

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/chatguru/internal/config"
	"github.com/mamadbah2/chatguru/internal/domain/models"
	"github.com/mamadbah2/chatguru/internal/repository/mongodb"
	"github.com/mamadbah2/chatguru/pkg/clients/chatguru"
)

// Service describes the operations the HTTP layer can perform.
type Service interface {
	HandleWebhook(ctx context.Context, raw []byte) (models.WebhookAck, error)
	AddAnnotation(ctx context.Context, req models.AnnotationRequest) error
	SendMessage(ctx context.Context, req models.OutboundMessageRequest) error
}

// ChatGuruRelay turns inbound ChatGuru webhooks into canonical events and
// optionally answers them through the ChatGuru API.
type ChatGuruRelay struct {
	cfg    config.RelayConfig
	client chatguru.Client
	repo   mongodb.Repository
	logger *zap.Logger
}

// NewChatGuruRelay wires a new service instance. repo may be nil, which
// disables archiving.
func NewChatGuruRelay(cfg config.RelayConfig, client chatguru.Client, repo mongodb.Repository, logger *zap.Logger) *ChatGuruRelay {
	svc := &ChatGuruRelay{
		cfg:    cfg,
		client: client,
		repo:   repo,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// HandleWebhook decodes and normalizes a webhook body. Only decode failures
// are returned; archive and reply failures are logged because the payload
// itself was understood.
func (s *ChatGuruRelay) HandleWebhook(ctx context.Context, raw []byte) (models.WebhookAck, error) {
	payload, err := chatguru.Decode(raw)
	if err != nil {
		return models.WebhookAck{}, err
	}
	if payload.ChatGuru != nil {
		payload.ChatGuru.NormalizeMediaFields()
	}

	event := chatguru.Normalize(payload)
	ack := models.WebhookAck{
		Shape:    string(event.Shape),
		ChatID:   event.ChatID,
		HasMedia: event.Media != nil,
	}

	s.logger.Info("webhook received",
		zap.String("shape", ack.Shape),
		zap.String("chat_id", event.ChatID),
		zap.String("phone", event.Phone),
		zap.Bool("has_media", ack.HasMedia),
		zap.Int("custom_fields", len(event.CustomFields)))

	if s.repo != nil {
		if err := s.repo.SaveEvent(ctx, event, raw); err != nil {
			s.logger.Error("failed to archive webhook event", zap.Error(err), zap.String("chat_id", event.ChatID))
		} else {
			ack.Archived = true
		}
	}

	if event.Phone == "" {
		s.logger.Debug("webhook without phone number, skipping replies", zap.String("shape", ack.Shape))
		return ack, nil
	}

	if s.cfg.ConfirmationText != "" {
		err := s.client.SendConfirmationMessage(ctx, event.Phone, event.PhoneID, s.cfg.ConfirmationText)
		s.logDownstream("confirmation", event, err)
		ack.Replied = err == nil
	}

	if s.cfg.AnnotateEvents {
		err := s.client.AddAnnotation(ctx, event.ChatID, event.Phone, annotationFor(event))
		s.logDownstream("annotation", event, err)
		ack.Annotated = err == nil
	}

	return ack, nil
}

// AddAnnotation lets operators attach notes to a chat over HTTP.
func (s *ChatGuruRelay) AddAnnotation(ctx context.Context, req models.AnnotationRequest) error {
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return chatguru.NewValidationError("phone_number must be provided")
	}
	return s.client.AddAnnotation(ctx, req.ChatID, req.PhoneNumber, req.Note)
}

// SendMessage lets operators push messages over HTTP.
func (s *ChatGuruRelay) SendMessage(ctx context.Context, req models.OutboundMessageRequest) error {
	switch {
	case strings.TrimSpace(req.PhoneNumber) == "":
		return chatguru.NewValidationError("phone_number must be provided")
	case strings.TrimSpace(req.Message) == "":
		return chatguru.NewValidationError("message must be provided")
	}
	return s.client.SendConfirmationMessage(ctx, req.PhoneNumber, req.PhoneID, req.Message)
}

func (s *ChatGuruRelay) logDownstream(what string, event chatguru.CanonicalChatEvent, err error) {
	switch {
	case err == nil:
		return
	case chatguru.IsChatNotFound(err):
		s.logger.Warn("chat not found for "+what, zap.String("phone", event.Phone))
	default:
		s.logger.Error("failed to send "+what, zap.Error(err), zap.String("chat_id", event.ChatID))
	}
}

func annotationFor(event chatguru.CanonicalChatEvent) string {
	var b strings.Builder
	if event.Text != "" {
		fmt.Fprintf(&b, "Mensagem recebida: %s", event.Text)
	} else {
		fmt.Fprintf(&b, "Evento %s recebido", event.Shape)
	}
	if event.Media != nil {
		fmt.Fprintf(&b, "\nMídia (%s): %s", event.Media.Kind, event.Media.URL)
	}
	return b.String()
}
