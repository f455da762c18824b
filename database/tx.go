package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"paper-trader/models"
)

var ErrInvalidBatchSize = errors.New("batch size must be positive")

// InsertPriceBatch writes a price series in chunks inside one transaction,
// so a partially ingested series never becomes visible.
func InsertPriceBatch(db *gorm.DB, prices []models.StockPrice, batchSize int) error {
	if batchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if len(prices) == 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < len(prices); i += batchSize {
			end := i + batchSize
			if end > len(prices) {
				end = len(prices)
			}
			chunk := prices[i:end]
			if err := tx.Create(&chunk).Error; err != nil {
				return fmt.Errorf("batch insert failed: %w", err)
			}
		}
		return nil
	})
}
