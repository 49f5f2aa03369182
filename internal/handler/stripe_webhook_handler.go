package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartsales/internal/payment"
	"smartsales/internal/repository"
	"smartsales/internal/service"
)

type StripeWebhookHandler struct {
	provider   *payment.StripeProvider
	settlement *service.SettlementService
	auditRepo  repository.AuditLogRepository
	logger     *zap.Logger
}

func NewStripeWebhookHandler(provider *payment.StripeProvider, settlement *service.SettlementService, auditRepo repository.AuditLogRepository, logger *zap.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{provider: provider, settlement: settlement, auditRepo: auditRepo, logger: logger}
}

// Handle processes signed Stripe events. A bad signature is rejected
// before any side effect; unrecognized event types are acknowledged and
// dropped. Non-2xx responses make Stripe retry, so persistence errors
// return 500 on purpose.
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	intent, err := h.provider.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}
	if intent == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.settlement.HandleProviderEvent(c.Request.Context(), intent); err != nil {
		h.logger.Error("webhook settlement failed",
			zap.String("intent_id", intent.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	audit(c, h.auditRepo, "webhook.stripe", "payment_intent", 0, map[string]interface{}{
		"intent_id": intent.ID,
		"status":    intent.Status,
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}
