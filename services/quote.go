package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-trader/database"
	"paper-trader/models"
)

const (
	quoteCacheTTL   = 5 * time.Minute
	historyCacheTTL = 24 * time.Hour
)

// Quote is the normalized result of a symbol lookup. Symbol is the
// provider's canonical uppercase form, which is what gets persisted
// regardless of how the user typed it.
type Quote struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

// QuoteProvider resolves a ticker symbol to a current quote. An unknown
// symbol is ErrSymbolNotFound, never a zero-priced quote.
type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

// MarketData is the full market surface the HTTP layer consumes: spot
// quotes plus the daily close series.
type MarketData interface {
	QuoteProvider
	HistoricalDaily(ctx context.Context, symbol string) ([]models.StockPrice, error)
}

type alphaVantageResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	TimeSeriesDaily map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

// AlphaVantage fetches quotes from the Alpha Vantage HTTP API, caching
// results in redis and persisting each observation to stock_prices.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *redis.Client
	db      *gorm.DB
	log     *zap.SugaredLogger
}

func NewAlphaVantage(apiKey string, cache *redis.Client, db *gorm.DB, log *zap.SugaredLogger) *AlphaVantage {
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: "https://www.alphavantage.co",
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		db:      db,
		log:     log,
	}
}

// Lookup resolves symbol to a current quote, serving from the redis cache
// when a fresh entry exists.
func (p *AlphaVantage) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrSymbolNotFound
	}

	cacheKey := fmt.Sprintf("stock:%s:quote", symbol)
	if cached, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
		var q Quote
		if err := json.Unmarshal([]byte(cached), &q); err == nil {
			return q, nil
		}
	}

	var result alphaVantageResponse
	if err := p.fetch(ctx, p.queryURL("GLOBAL_QUOTE", symbol), &result); err != nil {
		return Quote{}, err
	}

	if result.GlobalQuote.Price == "" {
		return Quote{}, ErrSymbolNotFound
	}

	price, err := strconv.ParseFloat(result.GlobalQuote.Price, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("parse quote price %q: %w", result.GlobalQuote.Price, err)
	}

	canonical := strings.ToUpper(result.GlobalQuote.Symbol)
	if canonical == "" {
		canonical = symbol
	}
	// The global quote endpoint carries no company name.
	q := Quote{Symbol: canonical, Name: canonical, Price: price}

	if data, err := json.Marshal(q); err == nil {
		if err := p.cache.Set(ctx, cacheKey, data, quoteCacheTTL).Err(); err != nil {
			p.log.Warnw("failed to cache quote", "symbol", canonical, "error", err)
		}
	}

	entry := models.StockPrice{Symbol: canonical, Price: price, Timestamp: time.Now()}
	if err := p.db.WithContext(ctx).Create(&entry).Error; err != nil {
		p.log.Warnw("failed to persist quote", "symbol", canonical, "error", err)
	}

	return q, nil
}

// HistoricalDaily fetches the daily close series for symbol, batch-inserts
// it into stock_prices and caches the series for a day.
func (p *AlphaVantage) HistoricalDaily(ctx context.Context, symbol string) ([]models.StockPrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	cacheKey := fmt.Sprintf("stock:%s:history", symbol)
	if cached, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
		var series []models.StockPrice
		if err := json.Unmarshal([]byte(cached), &series); err == nil {
			return series, nil
		}
	}

	var result alphaVantageResponse
	if err := p.fetch(ctx, p.queryURL("TIME_SERIES_DAILY", symbol), &result); err != nil {
		return nil, err
	}

	if len(result.TimeSeriesDaily) == 0 {
		return nil, ErrSymbolNotFound
	}

	series := make([]models.StockPrice, 0, len(result.TimeSeriesDaily))
	for date, day := range result.TimeSeriesDaily {
		price, err := strconv.ParseFloat(day.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("parse close price %q for %s: %w", day.Close, date, err)
		}
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse series date %q: %w", date, err)
		}
		series = append(series, models.StockPrice{Symbol: symbol, Price: price, Timestamp: ts})
	}

	if err := database.InsertPriceBatch(p.db.WithContext(ctx), series, 100); err != nil {
		p.log.Warnw("failed to persist price series", "symbol", symbol, "error", err)
	}

	if data, err := json.Marshal(series); err == nil {
		if err := p.cache.Set(ctx, cacheKey, data, historyCacheTTL).Err(); err != nil {
			p.log.Warnw("failed to cache price series", "symbol", symbol, "error", err)
		}
	}

	return series, nil
}

// queryURL builds the API endpoint with the symbol escaped, so symbols
// containing query metacharacters cannot inject extra parameters.
func (p *AlphaVantage) queryURL(function, symbol string) string {
	query := url.Values{
		"function": {function},
		"symbol":   {symbol},
		"apikey":   {p.apiKey},
	}
	return p.baseURL + "/query?" + query.Encode()
}

func (p *AlphaVantage) fetch(ctx context.Context, endpoint string, out *alphaVantageResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch quote data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote provider returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse quote data: %w", err)
	}
	return nil
}
