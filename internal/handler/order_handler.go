package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartsales/internal/middleware"
	"smartsales/internal/repository"
	"smartsales/internal/service"
)

type OrderHandler struct {
	svc       *service.OrderService
	auditRepo repository.AuditLogRepository
}

func NewOrderHandler(svc *service.OrderService, auditRepo repository.AuditLogRepository) *OrderHandler {
	return &OrderHandler{svc: svc, auditRepo: auditRepo}
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	o, err := h.svc.Get(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// List shows the caller's own orders; admins see everything and can
// filter by fulfillment status or customer.
func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := repository.OrderFilter{
		FulfillmentStatus: c.Query("fulfillment_status"),
		Limit:             limit,
		Offset:            offset,
	}
	if middleware.IsAdmin(c) {
		if v := c.Query("user_id"); v != "" {
			if id, err := strconv.ParseUint(v, 10, 64); err == nil {
				uid := uint(id)
				filter.UserID = &uid
			}
		}
	} else {
		uid := middleware.GetUserID(c)
		filter.UserID = &uid
	}
	list, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "total": total})
}

type fulfillmentRequest struct {
	FulfillmentStatus string `json:"fulfillment_status" binding:"required"`
}

func (h *OrderHandler) UpdateFulfillment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req fulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.svc.UpdateFulfillment(c.Request.Context(), uint(id), req.FulfillmentStatus)
	if err != nil {
		fail(c, err)
		return
	}
	audit(c, h.auditRepo, "order.fulfillment_updated", "order", o.ID, map[string]interface{}{
		"order_number":       o.Number,
		"fulfillment_status": o.FulfillmentStatus,
	})
	c.JSON(http.StatusOK, o)
}
