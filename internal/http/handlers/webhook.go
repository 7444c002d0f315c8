package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/service"
)

// WebhookVerify answers Facebook's GET subscription handshake: echo the
// challenge when the verify token matches, 403 otherwise.
func (h *Handler) WebhookVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.VerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// @Summary Receive Facebook leadgen webhook events
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Router /api/webhooks/facebook [post]
func (h *Handler) WebhookReceive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read body", err.Error())
		return
	}

	signature := c.GetHeader("x-hub-signature-256")
	if !service.VerifySignature(body, signature, h.Webhook.Secret) {
		h.Logger.Warn().Str("request_id", c.Writer.Header().Get("X-Request-Id")).Msg("webhook signature mismatch")
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid webhook signature", nil)
		return
	}

	var event service.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed event payload", err.Error())
		return
	}

	results := h.Webhook.ProcessEvent(c.Request.Context(), event)
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}
