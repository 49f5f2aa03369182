package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartsales/internal/middleware"
	"smartsales/internal/models"
	"smartsales/internal/repository"
	"smartsales/internal/service"
)

type CheckoutHandler struct {
	checkout   *service.CheckoutService
	settlement *service.SettlementService
	auditRepo  repository.AuditLogRepository
}

func NewCheckoutHandler(checkout *service.CheckoutService, settlement *service.SettlementService, auditRepo repository.AuditLogRepository) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, settlement: settlement, auditRepo: auditRepo}
}

func orderPayload(o *models.Order) gin.H {
	return gin.H{
		"order":         o,
		"client_secret": o.ClientSecret,
	}
}

// Start runs under OptionalAuth: guests check out with a nil user.
func (h *CheckoutHandler) Start(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.checkout.Start(c.Request.Context(), middleware.GetUserIDPtr(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	audit(c, h.auditRepo, "checkout.start", "order", order.ID, map[string]interface{}{
		"order_number": order.Number,
		"total":        order.TotalAmount.StringFixed(2),
	})
	c.JSON(http.StatusCreated, orderPayload(order))
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// Confirm asks the payment provider for the intent's live status and
// settles the order accordingly. Idempotent.
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req confirmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	order, err := h.settlement.Confirm(c.Request.Context(), uint(id), req.PaymentIntentID)
	if err != nil {
		audit(c, h.auditRepo, "checkout.confirm_failed", "order", uint(id), map[string]interface{}{
			"error": err.Error(),
		})
		fail(c, err)
		return
	}
	audit(c, h.auditRepo, "checkout.confirmed", "order", order.ID, map[string]interface{}{
		"order_number": order.Number,
		"status":       order.Status,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}
