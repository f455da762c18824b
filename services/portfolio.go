package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"paper-trader/models"
)

// Position is one priced line of a portfolio.
type Position struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Shares int64   `json:"shares"`
	Price  float64 `json:"price"`
	Total  float64 `json:"total"`
}

// PortfolioView is the full valuation: every position at its live price,
// plus cash, plus the grand total.
type PortfolioView struct {
	Positions  []Position `json:"positions"`
	Cash       float64    `json:"cash"`
	GrandTotal float64    `json:"grand_total"`
}

// PortfolioService serves the read paths: valuation and transaction
// history. It never mutates the ledger.
type PortfolioService struct {
	db     *gorm.DB
	quotes QuoteProvider
}

func NewPortfolioService(db *gorm.DB, quotes QuoteProvider) *PortfolioService {
	return &PortfolioService{db: db, quotes: quotes}
}

// Portfolio prices every holding at its current quote. A failed lookup
// fails the whole read; a held symbol is never silently priced at zero.
func (s *PortfolioService) Portfolio(ctx context.Context, userID uint) (PortfolioView, error) {
	var holdings []models.Holding
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("symbol").Find(&holdings).Error; err != nil {
		return PortfolioView{}, fmt.Errorf("load holdings: %w", err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return PortfolioView{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	total := decimal.NewFromFloat(user.Cash)
	positions := make([]Position, 0, len(holdings))
	for _, h := range holdings {
		quote, err := s.quotes.Lookup(ctx, h.Symbol)
		if err != nil {
			return PortfolioView{}, fmt.Errorf("price %s: %w", h.Symbol, err)
		}
		line := decimal.NewFromFloat(quote.Price).Mul(decimal.NewFromInt(h.Shares))
		positions = append(positions, Position{
			Symbol: h.Symbol,
			Name:   quote.Name,
			Shares: h.Shares,
			Price:  quote.Price,
			Total:  line.InexactFloat64(),
		})
		total = total.Add(line)
	}

	return PortfolioView{
		Positions:  positions,
		Cash:       user.Cash,
		GrandTotal: total.InexactFloat64(),
	}, nil
}

// History returns the user's transactions, oldest first.
func (s *PortfolioService) History(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp, id").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return transactions, nil
}
