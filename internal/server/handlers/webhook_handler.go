package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/chatguru/internal/domain/models"
	"github.com/mamadbah2/chatguru/internal/service/relay"
	"github.com/mamadbah2/chatguru/pkg/clients/chatguru"
)

// WebhookHandler handles inbound ChatGuru webhooks and operator requests.
type WebhookHandler struct {
	svc    relay.Service
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc relay.Service, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Receive ingests webhook POST callbacks from ChatGuru. Payloads that match
// no known shape are dropped with 400.
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("failed reading webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	ack, err := h.svc.HandleWebhook(c.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, chatguru.ErrSerialization) {
			h.logger.Warn("invalid webhook payload", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		h.logger.Error("failed processing webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
		return
	}

	c.JSON(http.StatusOK, ack)
}

// AddAnnotation attaches an operator note to a chat.
func (h *WebhookHandler) AddAnnotation(c *gin.Context) {
	var req models.AnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid annotation payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.AddAnnotation(c.Request.Context(), req); err != nil {
		h.respondError(c, "unable to add annotation", err)
		return
	}

	c.Status(http.StatusAccepted)
}

// SendMessage allows sending outbound messages through ChatGuru.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.SendMessage(c.Request.Context(), req); err != nil {
		h.respondError(c, "unable to send message", err)
		return
	}

	c.Status(http.StatusAccepted)
}

func (h *WebhookHandler) respondError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	} else {
		h.logger.Warn(message, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": message, "detail": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatguru.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, chatguru.ErrAPI):
		return http.StatusBadGateway
	case errors.Is(err, chatguru.ErrNetwork):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
