package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/db"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/service"
)

type Handler struct {
	Store       *db.Store
	Sync        *service.SyncService
	Webhook     *service.WebhookService
	Assign      *service.AssignmentService
	Validator   *validator.Validate
	Logger      zerolog.Logger
	VerifyToken string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ListQuery struct {
	Status   string `form:"status" validate:"omitempty,max=32"`
	Priority string `form:"priority" validate:"omitempty,oneof=High Medium Low"`
	Q        string `form:"q" validate:"omitempty,max=128"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=500"`
	Offset   int    `form:"offset,default=0" validate:"min=0"`
}

// @Summary List leads
// @Tags leads
// @Produce json
// @Param status query string false "Lead status"
// @Param priority query string false "Lead priority"
// @Param q query string false "Search name/email/phone"
// @Success 200 {object} map[string]any
// @Router /api/leads [get]
func (h *Handler) LeadsList(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid query", err.Error())
		return
	}
	if err := h.Validator.Struct(q); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	items, err := h.Store.ListLeads(c.Request.Context(), q.Status, q.Priority, q.Q, q.Limit, q.Offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list leads", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items, "limit": q.Limit, "offset": q.Offset})
}

func (h *Handler) AssignmentsList(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid query", err.Error())
		return
	}
	if err := h.Validator.Struct(q); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	items, err := h.Store.ListActiveAssignments(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list assignments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "items": items, "limit": q.Limit, "offset": q.Offset})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
