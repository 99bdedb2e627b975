package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "streamwear-backend/internal/common/errors"
	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/redemption/service"
)

// RedemptionHandler serves the public claim page API. No session: the code
// itself is the credential.
type RedemptionHandler struct {
	service *service.RedemptionService
}

func NewRedemptionHandler(svc *service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{service: svc}
}

func (h *RedemptionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/redeem/:code", h.resolve)
	router.POST("/redeem/:code", h.redeem)
}

// resolve renders the claim-page model for a redemption code.
//
// @Summary      Resolve a redemption code
// @Tags         redemption
// @Produce      json
// @Param        code path string true "redemption code"
// @Success      200 {object} map[string]interface{}
// @Router       /redeem/{code} [get]
func (h *RedemptionHandler) resolve(c *gin.Context) {
	view, err := h.service.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type redeemRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// redeem submits the winner's shipping address, valid exactly once.
//
// @Summary      Submit shipping data
// @Tags         redemption
// @Accept       json
// @Produce      json
// @Param        code path string true "redemption code"
// @Param        request body redeemRequest true "shipping address"
// @Success      200 {object} map[string]interface{}
// @Router       /redeem/{code} [post]
func (h *RedemptionHandler) redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrCodeMalformedPayload, "invalid shipping payload"))
		return
	}

	shipping := models.Shipping{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Street:     req.Street,
		PostalCode: req.PostalCode,
		City:       req.City,
		Country:    req.Country,
		Phone:      req.Phone,
	}
	if err := h.service.Redeem(c.Request.Context(), c.Param("code"), shipping); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
