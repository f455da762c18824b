package models

import (
	"time"

	"gorm.io/gorm"
)

// Holding is a user's position in one symbol. One row per (user, symbol);
// the row is deleted when the share count reaches zero, so a stored count
// is always positive. Symbols are stored in the quote provider's canonical
// uppercase form.
type Holding struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_user_symbol" json:"user_id"`
	Symbol string `gorm:"uniqueIndex:idx_user_symbol" json:"symbol"`
	Shares int64  `json:"shares"`
}

// Transaction is one executed trade. Rows are append-only: written once
// when a trade commits, never updated or deleted afterwards. The log is an
// audit trail; cash and holdings are maintained as running state and are
// never recomputed from it.
type Transaction struct {
	gorm.Model
	UserID    uint      `gorm:"index" json:"user_id"`
	Type      string    `json:"type"` // Bought or Sold
	Symbol    string    `json:"symbol"`
	Shares    int64     `json:"shares"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
