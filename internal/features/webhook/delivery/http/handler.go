package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"streamwear-backend/internal/common/logger"
	"streamwear-backend/internal/features/webhook/models"
	"streamwear-backend/internal/features/webhook/service"
	"streamwear-backend/internal/metrics"
)

const signatureHeader = "X-Shopify-Hmac-Sha256"

type WebhookHandler struct {
	service       *service.WebhookService
	webhookSecret string
}

func NewWebhookHandler(svc *service.WebhookService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{service: svc, webhookSecret: webhookSecret}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/shopify", h.handleOrderWebhook)
}

// handleOrderWebhook ingests a signed order webhook.
//
// @Summary      Shopify order webhook
// @Description  Verifies the HMAC signature over the raw body and materializes giveaway orders.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /webhooks/shopify [post]
func (h *WebhookHandler) handleOrderWebhook(c *gin.Context) {
	// The signature covers the exact bytes on the wire; read them before any
	// parsing.
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metrics.WebhooksReceived.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !service.VerifySignature(h.webhookSecret, rawBody, c.GetHeader(signatureHeader)) {
		metrics.WebhooksReceived.WithLabelValues("unauthenticated").Inc()
		logger.Warn().Str("client_ip", c.ClientIP()).Msg("webhook signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var order models.Order
	if err := json.Unmarshal(rawBody, &order); err != nil {
		metrics.WebhooksReceived.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}

	if err := h.service.ProcessOrder(c.Request.Context(), &order); err != nil {
		logger.Error().Err(err).Int64("order_id", order.ID).Msg("order processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	metrics.WebhooksReceived.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
