package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/service"
)

// @Summary Sync Facebook leads for one user
// @Tags sync
// @Produce json
// @Param userId path string true "CRM user id"
// @Success 200 {object} models.SyncSummary
// @Failure 404 {object} map[string]any
// @Router /api/sync/{userId} [post]
func (h *Handler) SyncUser(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "userId is required", nil)
		return
	}

	summary, err := h.Sync.SyncUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoConnection) {
			writeError(c, http.StatusNotFound, "NO_CONNECTION", "No Facebook connection found for user", err.Error())
			return
		}
		h.Logger.Error().Err(err).Str("user_id", userID).Msg("sync failed")
		writeError(c, http.StatusInternalServerError, "SYNC_ERROR", "Lead sync failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

// @Summary Sync Facebook leads for all credentialed accounts
// @Tags sync
// @Produce json
// @Success 200 {object} models.SyncAllSummary
// @Router /api/sync [post]
func (h *Handler) SyncAll(c *gin.Context) {
	summary, err := h.Sync.SyncAll(c.Request.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("sync-all failed")
		writeError(c, http.StatusInternalServerError, "SYNC_ERROR", "Automated sync failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

// @Summary Run the lead auto-assignment engine
// @Tags cron
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /api/cron/auto-assign [post]
func (h *Handler) CronAutoAssign(c *gin.Context) {
	total, err := h.Assign.Run(c.Request.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("auto-assignment run failed")
		writeError(c, http.StatusInternalServerError, "ASSIGN_ERROR", "Auto-assignment failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "totalAssignments": total})
}
