package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"paper-trader/services"
)

// Handler carries the services every route needs. Wired once in main.
type Handler struct {
	Accounts  *services.AccountService
	Trades    *services.TradeService
	Portfolio *services.PortfolioService
	Quotes    services.MarketData
	Rdb       *redis.Client
	JWTSecret string
	Log       *zap.SugaredLogger
}

func New(accounts *services.AccountService, trades *services.TradeService,
	portfolio *services.PortfolioService, quotes services.MarketData,
	rdb *redis.Client, jwtSecret string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		Accounts:  accounts,
		Trades:    trades,
		Portfolio: portfolio,
		Quotes:    quotes,
		Rdb:       rdb,
		JWTSecret: jwtSecret,
		Log:       log,
	}
}

// apology is the one failure shape every rejected request gets.
func apology(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// apologyFor maps a domain error to its status. Unknown errors become a
// generic 500 with the detail suppressed from the client.
func (h *Handler) apologyFor(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apology(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		apology(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrSymbolNotFound):
		apology(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidShares),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrNoSuchHolding),
		errors.Is(err, services.ErrInsufficientShares),
		errors.Is(err, services.ErrDuplicateRequest):
		apology(c, http.StatusBadRequest, err.Error())
	default:
		h.Log.Errorw("request failed", "path", c.FullPath(), "error", err)
		apology(c, http.StatusInternalServerError, "internal server error")
	}
}

func userID(c *gin.Context) uint {
	return c.MustGet("user_id").(uint)
}
