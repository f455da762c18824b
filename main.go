package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"paper-trader/config"
	"paper-trader/handlers"
	"paper-trader/middleware"
	"paper-trader/models"
	"paper-trader/services"
)

func main() {
	log := config.InitLogger()
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Infow("no .env file loaded", "error", err)
	}

	apiKey := os.Getenv("ALPHA_VANTAGE_API_KEY")
	if apiKey == "" {
		log.Fatal("ALPHA_VANTAGE_API_KEY not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatalw("database init failed", "error", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalw("failed to get database instance", "error", err)
	}
	defer sqlDB.Close()

	rdb, err := config.InitRedis()
	if err != nil {
		log.Fatalw("redis init failed", "error", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Holding{}, &models.Transaction{}, &models.StockPrice{}); err != nil {
		log.Fatalw("migration failed", "error", err)
	}

	quotes := services.NewAlphaVantage(apiKey, rdb, db, log)
	accounts := services.NewAccountService(db, config.StartingCash(), log)
	trades := services.NewTradeService(db, quotes, rdb, log)
	portfolio := services.NewPortfolioService(db, quotes)
	h := handlers.New(accounts, trades, portfolio, quotes, rdb, jwtSecret, log)

	router := gin.Default()

	// Public routes
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)

	// Protected routes
	auth := router.Group("/")
	auth.Use(middleware.JWTAuth(jwtSecret))
	{
		auth.GET("/", h.Index)
		auth.POST("/buy", h.Buy)
		auth.POST("/sell", h.Sell)
		auth.GET("/history", h.History)
		auth.GET("/quote/:symbol", h.GetQuote)
		auth.GET("/prices/:symbol/history", h.GetHistoricalData)
		auth.POST("/password", h.ChangePassword)
		auth.POST("/username", h.ChangeUsername)
	}

	addr := ":" + envOr("PORT", "8080")
	if err := router.Run(addr); err != nil {
		log.Fatalw("server exited", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
