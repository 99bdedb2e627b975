package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	apperrors "streamwear-backend/internal/common/errors"
	"streamwear-backend/internal/common/logger"
	"streamwear-backend/internal/features/alerts"
	connectorrepo "streamwear-backend/internal/features/connector/repository"
)

const writeTimeout = 5 * time.Second

// AlertsHandler exposes the alertbox websocket and a test-fire endpoint for
// overlay setup.
type AlertsHandler struct {
	publisher  *alerts.Publisher
	connectors connectorrepo.ConnectorRepository
}

func NewAlertsHandler(publisher *alerts.Publisher, connectors connectorrepo.ConnectorRepository) *AlertsHandler {
	return &AlertsHandler{publisher: publisher, connectors: connectors}
}

func (h *AlertsHandler) RegisterRoutes(router *gin.Engine, api *gin.RouterGroup) {
	router.GET("/ws/alertbox/:uuid", h.serve)
	api.POST("/alerts/test", h.test)
}

type testRequest struct {
	StreamerUUID string `json:"streamerId" binding:"required"`
}

// test publishes a synthetic purchase alert so a streamer can check their
// overlay without buying anything.
//
// @Summary      Fire a test alert
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        request body testRequest true "target streamer"
// @Success      200 {object} map[string]interface{}
// @Router       /alerts/test [post]
func (h *AlertsHandler) test(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrCodeValidation, "missing streamerId"))
		return
	}

	connector, err := h.connectors.GetByUUID(c.Request.Context(), req.StreamerUUID)
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError("get connector", err))
		return
	}
	if connector == nil {
		_ = c.Error(apperrors.Newf(apperrors.ErrCodeNotFound, "connector not found: %s", req.StreamerUUID))
		return
	}

	payload := alerts.Payload{
		Type:         "test",
		Customer:     "Test Customer",
		ProductTitle: "Test Product",
		VariantTitle: "M",
		Quantity:     1,
		Price:        "0.00",
		Currency:     "EUR",
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Username:     connector.TwitchUsername,
	}
	if err := h.publisher.Publish(c.Request.Context(), req.StreamerUUID, payload); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeInternal, "publish test alert"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "topic": h.publisher.Topic(req.StreamerUUID)})
}

// serve bridges the streamer's alert topic onto a websocket. Frames are the
// raw published envelopes; the overlay parses them client-side.
func (h *AlertsHandler) serve(c *gin.Context) {
	streamerUUID := c.Param("uuid")

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Error().Err(err).Msg("alertbox ws: accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	frames, unsubscribe := h.publisher.Subscribe(ctx, streamerUUID)
	defer unsubscribe()

	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case frame, ok := <-frames:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
