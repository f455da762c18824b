package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-trader/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Holding{}, &models.Transaction{}, &models.StockPrice{}))
	return db
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func seedUser(t *testing.T, db *gorm.DB, username string, cash float64) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "unused-hash", Cash: cash}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// fakeQuotes serves quotes from a fixed price table. Unknown symbols get
// ErrSymbolNotFound; a non-nil err overrides everything. Safe for
// concurrent lookups.
type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
	calls  int
}

func (f *fakeQuotes) Lookup(_ context.Context, symbol string) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Quote{}, f.err
	}
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	price, ok := f.prices[sym]
	if !ok {
		return Quote{}, ErrSymbolNotFound
	}
	return Quote{Symbol: sym, Name: sym, Price: price}, nil
}

func (f *fakeQuotes) lookupCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func cashOf(t *testing.T, db *gorm.DB, userID uint) float64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.Cash
}

func sharesOf(t *testing.T, db *gorm.DB, userID uint, symbol string) int64 {
	t.Helper()
	var holding models.Holding
	err := db.Where("user_id = ? AND symbol = ?", userID, symbol).First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	require.NoError(t, err)
	return holding.Shares
}

func transactionCount(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

// requireLedgerInvariants asserts cash >= 0 and every stored holding > 0.
func requireLedgerInvariants(t *testing.T, db *gorm.DB, userID uint) {
	t.Helper()
	require.GreaterOrEqual(t, cashOf(t, db, userID), 0.0)

	var holdings []models.Holding
	require.NoError(t, db.Where("user_id = ?", userID).Find(&holdings).Error)
	for _, h := range holdings {
		require.Greater(t, h.Shares, int64(0), "holding %s must never be stored at zero", h.Symbol)
	}
}
