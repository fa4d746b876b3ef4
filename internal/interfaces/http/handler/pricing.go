package handler

import (
	"context"

	apppricing "github.com/boxibox/backend/internal/application/pricing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuoteUseCases is the pricing application service used by PricingHandler
type QuoteUseCases interface {
	QuotePrice(ctx context.Context, tenantID, unitID uuid.UUID, req apppricing.QuoteRequest) (*apppricing.QuoteResponse, error)
	QuoteTotalCost(ctx context.Context, tenantID, unitID uuid.UUID, req apppricing.TotalCostRequest) (*apppricing.TotalCostResponse, error)
	QuoteBooking(ctx context.Context, tenantID, unitID uuid.UUID, req apppricing.BookingTotalRequest) (*apppricing.BookingTotalResponse, error)
	Prorate(ctx context.Context, req apppricing.ProrateRequest) (*apppricing.ProrateResponse, error)
	RedeemPromotion(ctx context.Context, tenantID uuid.UUID, code string) (*apppricing.PromotionResponse, error)
}

// PricingHandler serves rental unit quotes and promotion redemption
type PricingHandler struct {
	BaseHandler
	quotes QuoteUseCases
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(quotes QuoteUseCases) *PricingHandler {
	return &PricingHandler{quotes: quotes}
}

// Quote returns the monthly price breakdown of a unit
// POST /api/v1/pricing/units/:id/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	unitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apppricing.QuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.quotes.QuotePrice(c.Request.Context(), tenantID, unitID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// TotalCost returns the cost of a fixed-length rental
// POST /api/v1/pricing/units/:id/total-cost
func (h *PricingHandler) TotalCost(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	unitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apppricing.TotalCostRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.quotes.QuoteTotalCost(c.Request.Context(), tenantID, unitID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BookingTotal returns the first payment of a booking
// POST /api/v1/pricing/units/:id/booking-total
func (h *PricingHandler) BookingTotal(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	unitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apppricing.BookingTotalRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.quotes.QuoteBooking(c.Request.Context(), tenantID, unitID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Prorate charges a monthly price over a date range
// POST /api/v1/pricing/prorate
func (h *PricingHandler) Prorate(c *gin.Context) {
	var req apppricing.ProrateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.quotes.Prorate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RedeemPromotion consumes one use of a promotion code
// POST /api/v1/promotions/:code/redeem
func (h *PricingHandler) RedeemPromotion(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	code := c.Param("code")
	if code == "" || len(code) > 50 {
		h.BadRequest(c, "Invalid promotion code")
		return
	}

	resp, err := h.quotes.RedeemPromotion(c.Request.Context(), tenantID, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
