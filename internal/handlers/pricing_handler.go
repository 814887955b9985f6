package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voyagecrm/booking-core/internal/models"
	"github.com/voyagecrm/booking-core/internal/pricing"
	"github.com/voyagecrm/booking-core/internal/validation"
)

// PricingHandler quotes prices and checks offers
type PricingHandler struct {
	engine *pricing.Engine
	now    func() time.Time
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(engine *pricing.Engine) *PricingHandler {
	return &PricingHandler{engine: engine, now: time.Now}
}

// QuoteRequest is the input of a price quote
type QuoteRequest struct {
	BasePrice  float64       `json:"base_price"`
	TravelDate time.Time     `json:"travel_date" binding:"required"`
	RoomType   string        `json:"room_type"`
	Occupancy  int           `json:"occupancy"`
	Offer      *models.Offer `json:"offer,omitempty"`
}

// QuoteResponse is a priced quote with the optional offer applied
type QuoteResponse struct {
	Breakdown pricing.PriceBreakdown `json:"breakdown"`
	Discount  *pricing.Discount      `json:"discount,omitempty"`
	Total     float64                `json:"total"`
}

// Quote prices a travel date - POST /api/v1/pricing/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	breakdown, err := h.engine.CalculatePrice(req.BasePrice, req.TravelDate, req.RoomType, req.Occupancy)
	if err != nil {
		respondError(c, validation.NewError("base_price", "Base price must be a positive number"))
		return
	}

	resp := QuoteResponse{Breakdown: breakdown, Total: breakdown.TotalPrice}
	if req.Offer != nil {
		discount, err := pricing.ApplyOffer(breakdown.TotalPrice, req.Offer, h.now())
		if err != nil {
			respondError(c, offerError(err))
			return
		}
		resp.Discount = &discount
		resp.Total = discount.FinalTotal
	}

	c.JSON(http.StatusOK, resp)
}

// ValidateOffer checks an offer record - POST /api/v1/offers/validate
func (h *PricingHandler) ValidateOffer(c *gin.Context) {
	var offer models.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := validation.ValidateOffer(&offer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "offer": offer})
}

// offerError turns an offer that cannot be applied into a field error
func offerError(err error) error {
	if _, ok := validation.AsValidationError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, pricing.ErrOfferInactive),
		errors.Is(err, pricing.ErrOfferNotStarted),
		errors.Is(err, pricing.ErrOfferExpired),
		errors.Is(err, pricing.ErrOfferExhausted):
		return validation.NewError("offer", "Offer cannot be applied: "+err.Error())
	}
	return err
}
