package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"laundrospin-backend/internal/pricing"
)

// pricingQuote is the price breakdown for a prospective session, so the
// client renders the same numbers the engine will charge.
type pricingQuote struct {
	BufferMinutes    int             `json:"buffer_minutes"`
	BasePrice        decimal.Decimal `json:"base_price"`
	BufferPrice      decimal.Decimal `json:"buffer_price"`
	Total            decimal.Decimal `json:"total"`
	PreAuthHold      decimal.Decimal `json:"pre_auth_hold"`
	PenaltyPerMinute decimal.Decimal `json:"penalty_per_minute"`
	CycleSeconds     int             `json:"cycle_seconds"`
}

// GetPricing handles GET /api/pricing?buffer_minutes=N.
func (h *Handler) GetPricing(c *gin.Context) {
	minutes := 0
	if raw := c.Query("buffer_minutes"); raw != "" {
		var err error
		minutes, err = strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid buffer_minutes"})
			return
		}
	}

	bufferPrice, err := pricing.BufferPrice(minutes)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Buffer minutes must be non-negative"})
		return
	}

	c.JSON(http.StatusOK, pricingQuote{
		BufferMinutes:    minutes,
		BasePrice:        pricing.BasePrice,
		BufferPrice:      bufferPrice,
		Total:            pricing.BasePrice.Add(bufferPrice),
		PreAuthHold:      pricing.PreAuthHold,
		PenaltyPerMinute: pricing.PenaltyPerMinute,
		CycleSeconds:     pricing.CycleSeconds,
	})
}
