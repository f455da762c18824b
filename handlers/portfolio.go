package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Index shows the portfolio: every position at its live price, cash, and
// the grand total.
func (h *Handler) Index(c *gin.Context) {
	view, err := h.Portfolio.Portfolio(c.Request.Context(), userID(c))
	if err != nil {
		h.apologyFor(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// History lists the user's transactions, oldest first.
func (h *Handler) History(c *gin.Context) {
	transactions, err := h.Portfolio.History(c.Request.Context(), userID(c))
	if err != nil {
		h.apologyFor(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}
