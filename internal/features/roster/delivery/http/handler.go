package http

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"streamwear-backend/internal/common/logger"
	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/roster"
)

const writeTimeout = 5 * time.Second

// RosterHandler serves the live participant list over a websocket: one
// snapshot frame, then one frame per roster change.
type RosterHandler struct {
	manager *roster.Manager
}

func NewRosterHandler(manager *roster.Manager) *RosterHandler {
	return &RosterHandler{manager: manager}
}

func (h *RosterHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws/giveaways/:id/participants", h.serve)
}

type snapshotFrame struct {
	Event        string               `json:"event"`
	Participants []models.Participant `json:"participants"`
}

type changeFrame struct {
	Event       string             `json:"event"`
	Participant models.Participant `json:"participant"`
}

func (h *RosterHandler) serve(c *gin.Context) {
	giveawayID := c.Param("id")

	// Overlay widgets run inside OBS browser sources, which send no usable
	// Origin header.
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Error().Err(err).Msg("roster ws: accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx := c.Request.Context()

	snapshot, events, cancel, err := h.manager.Subscribe(ctx, giveawayID)
	if err != nil {
		logger.Error().Err(err).Str("giveaway_id", giveawayID).Msg("roster ws: snapshot failed")
		conn.Close(websocket.StatusInternalError, "snapshot failed")
		return
	}
	defer cancel()

	if snapshot == nil {
		snapshot = []models.Participant{}
	}
	if err := writeFrame(ctx, conn, snapshotFrame{Event: "snapshot", Participants: snapshot}); err != nil {
		return
	}

	// Drain client frames so pings are answered and closure is noticed.
	readCtx, stopRead := context.WithCancel(ctx)
	defer stopRead()
	go func() {
		for {
			if _, _, err := conn.Read(readCtx); err != nil {
				stopRead()
				return
			}
		}
	}()

	for {
		select {
		case <-readCtx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			frame := changeFrame{Event: strings.ToLower(ev.Op), Participant: ev.Participant}
			if err := writeFrame(ctx, conn, frame); err != nil {
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame interface{}) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
