package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetConfiguration returns the cake price and the current round.
func (h *Handler) GetConfiguration(c *gin.Context) {
	cfg, err := h.store.GetConfiguration(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cakeUnitPrice":   cfg.CakeUnitPrice.String(),
		"currentRoundId":  cfg.CurrentRoundID,
		"maintenanceMode": cfg.MaintenanceMode,
	})
}

type setPriceRequest struct {
	CakeUnitPrice string `json:"cakeUnitPrice" validate:"required"`
}

// SetCakeUnitPrice changes the price used for future contributions. Admin
// only. Historical contributions keep the price recorded at commit time.
func (h *Handler) SetCakeUnitPrice(c *gin.Context) {
	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	price, err := decimal.NewFromString(req.CakeUnitPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cakeUnitPrice must be a decimal number"})
		return
	}

	if err := h.store.SetCakeUnitPrice(c.Request.Context(), price); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cakeUnitPrice": price.String()})
}

// Recompute replays the full history and overwrites live balances. Admin
// only. Returns the divergences that were healed.
func (h *Handler) Recompute(c *gin.Context) {
	result, err := h.recompute.RecomputeAllBalances(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListCompensations returns the audit trail of closed rounds, newest first.
func (h *Handler) ListCompensations(c *gin.Context) {
	records, err := h.store.ListCompensations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetStats returns the fund dashboard indicators.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.stats.ComputeFundStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
