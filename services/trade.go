package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-trader/models"
)

const (
	// TypeBought and TypeSold are the only transaction types the ledger
	// records.
	TypeBought = "Bought"
	TypeSold   = "Sold"

	requestClaimTTL = 24 * time.Hour
)

// TradeService executes buys and sells against a user's ledger: cash
// balance, holdings and the transaction log. Every trade applies its
// effects in one database transaction, and trades for the same user are
// serialized by a per-user lock so concurrent requests cannot interleave
// their read-modify-write sequences. Trades for different users proceed
// in parallel.
type TradeService struct {
	db     *gorm.DB
	quotes QuoteProvider
	idem   *redis.Client // nil disables request deduplication
	locks  userLocks
	log    *zap.SugaredLogger
}

func NewTradeService(db *gorm.DB, quotes QuoteProvider, idem *redis.Client, log *zap.SugaredLogger) *TradeService {
	return &TradeService{db: db, quotes: quotes, idem: idem, log: log}
}

// userLocks hands out one mutex per user id.
type userLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func (l *userLocks) forUser(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[uint]*sync.Mutex)
	}
	if _, ok := l.m[id]; !ok {
		l.m[id] = &sync.Mutex{}
	}
	return l.m[id]
}

// Buy purchases shares of symbol at the current quoted price. The holding
// increment, cash debit and transaction append commit together or not at
// all; a rejected buy leaves the ledger untouched. requestID, when
// non-empty, deduplicates resubmissions of the same form.
func (s *TradeService) Buy(ctx context.Context, userID uint, symbol string, shares int64, requestID string) (models.Transaction, error) {
	if shares <= 0 {
		return models.Transaction{}, ErrInvalidShares
	}
	if strings.TrimSpace(symbol) == "" {
		return models.Transaction{}, ErrSymbolNotFound
	}

	claimed, err := s.claimRequest(ctx, requestID)
	if err != nil {
		return models.Transaction{}, err
	}

	record, err := s.executeBuy(ctx, userID, symbol, shares)
	if err != nil && claimed {
		s.releaseRequest(ctx, requestID)
	}
	return record, err
}

func (s *TradeService) executeBuy(ctx context.Context, userID uint, symbol string, shares int64) (models.Transaction, error) {
	quote, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return models.Transaction{}, err
	}

	cost := decimal.NewFromFloat(quote.Price).Mul(decimal.NewFromInt(shares))

	lock := s.locks.forUser(userID)
	lock.Lock()
	defer lock.Unlock()

	var record models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user %d: %w", userID, err)
		}

		cash := decimal.NewFromFloat(user.Cash)
		if cost.GreaterThan(cash) {
			return ErrInsufficientFunds
		}

		var holding models.Holding
		err := tx.Where("user_id = ? AND symbol = ?", userID, quote.Symbol).First(&holding).Error
		switch {
		case err == nil:
			if err := tx.Model(&holding).Update("shares", holding.Shares+shares).Error; err != nil {
				return fmt.Errorf("update holding: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			holding = models.Holding{UserID: userID, Symbol: quote.Symbol, Shares: shares}
			if err := tx.Create(&holding).Error; err != nil {
				return fmt.Errorf("create holding: %w", err)
			}
		default:
			return fmt.Errorf("load holding: %w", err)
		}

		if err := tx.Model(&user).Update("cash", cash.Sub(cost).InexactFloat64()).Error; err != nil {
			return fmt.Errorf("debit cash: %w", err)
		}

		record = models.Transaction{
			UserID:    userID,
			Type:      TypeBought,
			Symbol:    quote.Symbol,
			Shares:    shares,
			Price:     quote.Price,
			Timestamp: time.Now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.log.Infow("trade executed", "user", userID, "type", TypeBought, "symbol", quote.Symbol, "shares", shares, "price", quote.Price)
	return record, nil
}

// Sell disposes of shares of symbol at the current quoted price. The
// share count is checked before the quote is resolved, so a user selling
// shares they do not hold sees that error even when the symbol is also
// unknown to the market. Selling an entire position deletes the holding
// row.
func (s *TradeService) Sell(ctx context.Context, userID uint, symbol string, shares int64, requestID string) (models.Transaction, error) {
	if shares <= 0 {
		return models.Transaction{}, ErrInvalidShares
	}

	claimed, err := s.claimRequest(ctx, requestID)
	if err != nil {
		return models.Transaction{}, err
	}

	record, err := s.executeSell(ctx, userID, symbol, shares)
	if err != nil && claimed {
		s.releaseRequest(ctx, requestID)
	}
	return record, err
}

func (s *TradeService) executeSell(ctx context.Context, userID uint, symbol string, shares int64) (models.Transaction, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	lock := s.locks.forUser(userID)
	lock.Lock()
	defer lock.Unlock()

	var holding models.Holding
	err := s.db.WithContext(ctx).Where("user_id = ? AND symbol = ?", userID, symbol).First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Transaction{}, ErrNoSuchHolding
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("load holding: %w", err)
	}
	if shares > holding.Shares {
		return models.Transaction{}, ErrInsufficientShares
	}

	quote, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return models.Transaction{}, err
	}

	proceeds := decimal.NewFromFloat(quote.Price).Mul(decimal.NewFromInt(shares))
	remaining := holding.Shares - shares

	var record models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if remaining == 0 {
			if err := tx.Unscoped().Delete(&holding).Error; err != nil {
				return fmt.Errorf("delete holding: %w", err)
			}
		} else {
			if err := tx.Model(&holding).Update("shares", remaining).Error; err != nil {
				return fmt.Errorf("update holding: %w", err)
			}
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user %d: %w", userID, err)
		}
		cash := decimal.NewFromFloat(user.Cash)
		if err := tx.Model(&user).Update("cash", cash.Add(proceeds).InexactFloat64()).Error; err != nil {
			return fmt.Errorf("credit cash: %w", err)
		}

		record = models.Transaction{
			UserID:    userID,
			Type:      TypeSold,
			Symbol:    quote.Symbol,
			Shares:    shares,
			Price:     quote.Price,
			Timestamp: time.Now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.log.Infow("trade executed", "user", userID, "type", TypeSold, "symbol", quote.Symbol, "shares", shares, "price", quote.Price)
	return record, nil
}

// claimRequest marks requestID as seen. The claim lives for a day, long
// past any browser retry window.
func (s *TradeService) claimRequest(ctx context.Context, requestID string) (bool, error) {
	if requestID == "" || s.idem == nil {
		return false, nil
	}
	ok, err := s.idem.SetNX(ctx, "trade:request:"+requestID, 1, requestClaimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim trade request: %w", err)
	}
	if !ok {
		return false, ErrDuplicateRequest
	}
	return true, nil
}

// releaseRequest frees a claim after a failed trade so a corrected retry
// with the same id can proceed.
func (s *TradeService) releaseRequest(ctx context.Context, requestID string) {
	if err := s.idem.Del(ctx, "trade:request:"+requestID).Err(); err != nil {
		s.log.Warnw("failed to release trade request claim", "request_id", requestID, "error", err)
	}
}
