package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetQuote looks up a single symbol.
func (h *Handler) GetQuote(c *gin.Context) {
	quote, err := h.Quotes.Lookup(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.apologyFor(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetHistoricalData returns the daily close series for a symbol.
func (h *Handler) GetHistoricalData(c *gin.Context) {
	series, err := h.Quotes.HistoricalDaily(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.apologyFor(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
