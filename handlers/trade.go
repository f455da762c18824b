package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TradeInput is shared by buy and sell. Shares is validated as a positive
// integer here, independent of any client-side form constraint. RequestID
// is optional; when a client supplies one, resubmitting the same form
// executes the trade at most once.
type TradeInput struct {
	Symbol    string `json:"symbol" binding:"required"`
	Shares    int64  `json:"shares" binding:"required,min=1"`
	RequestID string `json:"request_id"`
}

func (h *Handler) Buy(c *gin.Context) {
	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apology(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.Trades.Buy(c.Request.Context(), userID(c), input.Symbol, input.Shares, input.RequestID)
	if err != nil {
		h.apologyFor(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bought!", "transaction": record})
}

func (h *Handler) Sell(c *gin.Context) {
	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apology(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.Trades.Sell(c.Request.Context(), userID(c), input.Symbol, input.Shares, input.RequestID)
	if err != nil {
		h.apologyFor(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sold!", "transaction": record})
}
