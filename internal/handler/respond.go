package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartsales/internal/middleware"
	"smartsales/internal/models"
	"smartsales/internal/repository"
	"smartsales/internal/service"
)

// fail maps service error kinds to HTTP status codes. Retryable failures
// carry a flag so clients know to call again rather than give up.
func fail(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	switch se.Kind {
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": se.Message})
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": se.Message})
	case service.KindRetryable:
		c.JSON(http.StatusConflict, gin.H{"error": se.Message, "retryable": true})
	case service.KindUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": se.Message, "retryable": true})
	case service.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": se.Message, "retryable": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// audit records a best-effort audit entry from the request context.
func audit(c *gin.Context, repo repository.AuditLogRepository, action, resource string, resourceID uint, metadata map[string]interface{}) {
	if repo == nil {
		return
	}
	var meta string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		meta = string(b)
	}
	var rid string
	if resourceID != 0 {
		rid = strconv.FormatUint(uint64(resourceID), 10)
	}
	entry := &models.AuditLog{
		UserID:     middleware.GetUserIDPtr(c),
		Action:     action,
		Resource:   resource,
		ResourceID: rid,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Metadata:   meta,
	}
	_ = repo.Record(context.WithoutCancel(c.Request.Context()), entry)
}
