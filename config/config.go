package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DefaultStartingCash is the balance granted to every new account when
// STARTING_CASH is not set.
const DefaultStartingCash = 10000

// InitLogger builds the process-wide logger. Dev mode when GIN_MODE is not
// "release".
func InitLogger() *zap.SugaredLogger {
	var logger *zap.Logger
	var err error
	if os.Getenv("GIN_MODE") == "release" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger.Sugar()
}

// InitDB opens the PostgreSQL connection from DB_* environment variables.
func InitDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "127.0.0.1"),
		envOr("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_NAME", "paper_trader"),
		envOr("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// InitRedis connects to the Redis instance at REDIS_ADDR.
func InitRedis() (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "127.0.0.1:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := rdb.Ping(rdb.Context()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// StartingCash reads the opening balance for new accounts.
func StartingCash() float64 {
	raw := os.Getenv("STARTING_CASH")
	if raw == "" {
		return DefaultStartingCash
	}
	cash, err := strconv.ParseFloat(raw, 64)
	if err != nil || cash < 0 {
		return DefaultStartingCash
	}
	return cash
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
