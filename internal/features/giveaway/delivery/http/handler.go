package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "streamwear-backend/internal/common/errors"
	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service *service.GiveawayService
}

func NewGiveawayHandler(svc *service.GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{service: svc}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.GET("", h.list)
		giveaways.POST("/start", h.start)
		giveaways.POST("/draw", h.draw)
		giveaways.POST("/:id/participants", h.addParticipant)
		giveaways.GET("/:id/participants", h.listParticipants)
	}
}

type startRequest struct {
	GiveawayOrderID string `json:"giveawayOrderId" binding:"required"`
	StreamerUUID    string `json:"streamerId"`
	Command         string `json:"command"`
	DurationSeconds int    `json:"durationSeconds"`
}

// start opens a new entry window for a giveaway order.
//
// @Summary      Start a giveaway
// @Tags         giveaways
// @Accept       json
// @Produce      json
// @Param        request body startRequest true "start parameters"
// @Success      200 {object} map[string]interface{}
// @Router       /giveaways/start [post]
func (h *GiveawayHandler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrCodeValidation, "missing giveawayOrderId"))
		return
	}

	giveaway, err := h.service.Start(c.Request.Context(), service.StartInput{
		GiveawayOrderID: req.GiveawayOrderID,
		StreamerUUID:    req.StreamerUUID,
		Command:         req.Command,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"giveaway": giveaway})
}

type drawRequest struct {
	GiveawayID string `json:"giveawayId" binding:"required"`
}

// draw finishes a giveaway and picks the winner.
//
// @Summary      Draw a winner
// @Tags         giveaways
// @Accept       json
// @Produce      json
// @Param        request body drawRequest true "draw parameters"
// @Success      200 {object} map[string]interface{}
// @Router       /giveaways/draw [post]
func (h *GiveawayHandler) draw(c *gin.Context) {
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrCodeValidation, "missing giveawayId"))
		return
	}

	winner, detail, err := h.service.Draw(c.Request.Context(), req.GiveawayID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"winner": winner, "winnerDetail": detail})
}

// list returns the streamer's giveaway orders with their run history.
//
// @Summary      List giveaway orders for a streamer
// @Tags         giveaways
// @Produce      json
// @Param        streamer_id query string true "streamer uuid"
// @Success      200 {object} map[string]interface{}
// @Router       /giveaways [get]
func (h *GiveawayHandler) list(c *gin.Context) {
	rows, err := h.service.ListForStreamer(c.Request.Context(), c.Query("streamer_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": rows})
}

type participantRequest struct {
	TwitchLogin       string `json:"twitch_login" binding:"required"`
	TwitchDisplayName string `json:"twitch_display_name"`
	TwitchUserID      string `json:"twitch_user_id" binding:"required"`
}

// addParticipant records a chat entry; this is the chat bot's write path.
//
// @Summary      Add a participant
// @Tags         giveaways
// @Accept       json
// @Produce      json
// @Param        id path string true "giveaway id"
// @Param        request body participantRequest true "entrant"
// @Success      200 {object} map[string]interface{}
// @Router       /giveaways/{id}/participants [post]
func (h *GiveawayHandler) addParticipant(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrCodeValidation, "missing twitch user"))
		return
	}

	p := &models.Participant{
		TwitchLogin:       req.TwitchLogin,
		TwitchDisplayName: req.TwitchDisplayName,
		TwitchUserID:      req.TwitchUserID,
	}
	created, err := h.service.AddParticipant(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "created": created, "participant": p})
}

// listParticipants returns the roster snapshot ordered by join time.
//
// @Summary      List participants
// @Tags         giveaways
// @Produce      json
// @Param        id path string true "giveaway id"
// @Success      200 {object} map[string]interface{}
// @Router       /giveaways/{id}/participants [get]
func (h *GiveawayHandler) listParticipants(c *gin.Context) {
	participants, err := h.service.Participants(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}
