package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paper-trader/models"
)

func TestPortfolioValuation(t *testing.T) {
	db := newTestDB(t)
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 120, "MSFT": 10.5}}
	user := seedUser(t, db, "alice", 8450)
	require.NoError(t, db.Create(&models.Holding{UserID: user.ID, Symbol: "AAPL", Shares: 15}).Error)
	require.NoError(t, db.Create(&models.Holding{UserID: user.ID, Symbol: "MSFT", Shares: 2}).Error)

	svc := NewPortfolioService(db, quotes)
	view, err := svc.Portfolio(context.Background(), user.ID)
	require.NoError(t, err)

	require.Len(t, view.Positions, 2)
	require.Equal(t, "AAPL", view.Positions[0].Symbol)
	require.InDelta(t, 1800, view.Positions[0].Total, 1e-9)
	require.Equal(t, "MSFT", view.Positions[1].Symbol)
	require.InDelta(t, 21, view.Positions[1].Total, 1e-9)
	require.InDelta(t, 8450, view.Cash, 1e-9)
	require.InDelta(t, 8450+1800+21, view.GrandTotal, 1e-9)
}

func TestPortfolioEmptyIsJustCash(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 10000)

	svc := NewPortfolioService(db, &fakeQuotes{prices: map[string]float64{}})
	view, err := svc.Portfolio(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, view.Positions)
	require.InDelta(t, 10000, view.GrandTotal, 1e-9)
}

// A quote failure fails the whole valuation; a held symbol is never
// silently priced at zero.
func TestPortfolioFailsClosedOnQuoteError(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 10000)
	require.NoError(t, db.Create(&models.Holding{UserID: user.ID, Symbol: "AAPL", Shares: 1}).Error)

	svc := NewPortfolioService(db, &fakeQuotes{prices: map[string]float64{}})
	_, err := svc.Portfolio(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestHistoryOrdering(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", 10000)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, tx := range []models.Transaction{
		{UserID: user.ID, Type: TypeBought, Symbol: "AAPL", Shares: 10, Price: 100},
		{UserID: user.ID, Type: TypeBought, Symbol: "AAPL", Shares: 5, Price: 110},
		{UserID: user.ID, Type: TypeSold, Symbol: "AAPL", Shares: 15, Price: 120},
	} {
		tx.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(&tx).Error)
	}

	svc := NewPortfolioService(db, &fakeQuotes{})
	history, err := svc.History(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, TypeBought, history[0].Type)
	require.Equal(t, int64(10), history[0].Shares)
	require.Equal(t, TypeSold, history[2].Type)
	require.Equal(t, int64(15), history[2].Shares)
}
