package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"cryptoluck/database"
	"cryptoluck/domain/services"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Lottery configuration (USD cents)
	TicketPriceCents     int64
	PrizeCents           int64
	MinBankCents         int64
	MinTicketsPerPayment int64

	// Payout configuration
	AutoPayout           bool
	PayoutCurrency       string   // preferred winner payout currency code
	OwnerPayoutCurrency  string   // currency for leftover distribution
	OwnerWallets         []string // addresses receiving the leftover split
	IdempotencyNamespace string

	// Payment provider configuration
	NowPaymentsBaseURL string
	NowPaymentsAPIKey  string
	NowPaymentsIPNKey  string
	IPNCallbackURL     string

	// Randomness oracle configuration
	SeedAPIURLs  []string // ordered block hash sources (comma-separated env)
	SeedCacheTTL time.Duration

	// Redis configuration (optional, used for the seed cache)
	RedisAddr string

	// NATS configuration (optional, used for the event sink)
	NatsURL string

	// Draw scheduling
	DrawInterval time.Duration

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Settings builds the domain settings the settlement engine runs on
func (c *Config) Settings() services.Settings {
	return services.Settings{
		TicketPriceCents:     c.TicketPriceCents,
		PrizeCents:           c.PrizeCents,
		MinBankCents:         c.MinBankCents,
		MinTicketsPerPayment: c.MinTicketsPerPayment,
		AutoPayout:           c.AutoPayout,
		PayoutCurrency:       c.PayoutCurrency,
		OwnerPayoutCurrency:  c.OwnerPayoutCurrency,
		OwnerWallets:         c.OwnerWallets,
		IdempotencyNamespace: c.IdempotencyNamespace,
		Currencies:           supportedCurrencies(),
		AddressPatterns:      addressPatterns(),
	}
}

// supportedCurrencies is the table of currencies players can pay with.
// Minimum payments are USD cents.
func supportedCurrencies() map[string]services.SupportedCurrency {
	return map[string]services.SupportedCurrency{
		"hbar": {Code: "hbar", Name: "Hedera", MinPaymentCents: 50},
		"trx":  {Code: "trx", Name: "TRON", MinPaymentCents: 50},
		"xrp":  {Code: "xrp", Name: "Ripple", MinPaymentCents: 50},
	}
}

func addressPatterns() map[string]*regexp.Regexp {
	return map[string]*regexp.Regexp{
		"trx":  regexp.MustCompile(`^T[A-Za-z1-9]{33}$`),
		"hbar": regexp.MustCompile(`^0\.0\.[0-9]+$`),
		"xrp":  regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,34}$`),
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// Best effort; absence of a .env file is normal in production
	_ = godotenv.Load()

	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Lottery settings with defaults
		TicketPriceCents:     getEnvUSDCents("TICKET_PRICE_USD", 50),
		PrizeCents:           getEnvUSDCents("PRIZE_USD", 1000),
		MinBankCents:         getEnvUSDCents("MIN_BANK_USD", 1000),
		MinTicketsPerPayment: getEnvInt64("MIN_TICKETS_PER_PAYMENT", 2),

		// Payouts
		AutoPayout:           getEnvWithDefault("AUTO_PAYOUT", "true") == "true",
		PayoutCurrency:       strings.ToLower(getEnvWithDefault("PAYOUT_CURRENCY", "trx")),
		OwnerPayoutCurrency:  strings.ToLower(getEnvWithDefault("OWNER_PAYOUT_CURRENCY", "trx")),
		IdempotencyNamespace: getEnvWithDefault("DRAW_IDEMPOTENCY_NAMESPACE", "cryptoluck"),

		// Payment provider
		NowPaymentsBaseURL: getEnvWithDefault("NOWPAYMENTS_BASE_URL", "https://api.nowpayments.io"),
		NowPaymentsAPIKey:  os.Getenv("NOWPAYMENTS_API_KEY"),
		NowPaymentsIPNKey:  os.Getenv("NOWPAYMENTS_IPN_SECRET"),
		IPNCallbackURL:     os.Getenv("IPN_CALLBACK_URL"),

		// Oracle
		SeedCacheTTL: time.Duration(getEnvInt64("SEED_CACHE_TTL_SEC", 60)) * time.Second,

		// Redis
		RedisAddr: os.Getenv("REDIS_ADDR"),

		// NATS
		NatsURL: os.Getenv("NATS_URL"),

		// Draw scheduling defaults to weekly
		DrawInterval: 7 * 24 * time.Hour,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if urls := os.Getenv("SEED_API_URLS"); urls != "" {
		for _, url := range strings.Split(urls, ",") {
			url = strings.TrimSpace(url)
			if url != "" {
				config.SeedAPIURLs = append(config.SeedAPIURLs, url)
			}
		}
	}

	if wallets := os.Getenv("OWNER_WALLETS"); wallets != "" {
		for _, wallet := range strings.Split(wallets, ",") {
			wallet = strings.TrimSpace(wallet)
			if wallet != "" {
				config.OwnerWallets = append(config.OwnerWallets, wallet)
			}
		}
	}

	if interval := os.Getenv("DRAW_INTERVAL"); interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid DRAW_INTERVAL: %w", err)
		}
		config.DrawInterval = parsed
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.NowPaymentsAPIKey == "" {
			return nil, fmt.Errorf("NOWPAYMENTS_API_KEY is required")
		}
		if config.NowPaymentsIPNKey == "" {
			return nil, fmt.Errorf("NOWPAYMENTS_IPN_SECRET is required")
		}
		if config.TicketPriceCents <= 0 {
			return nil, fmt.Errorf("TICKET_PRICE_USD must be positive")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvUSDCents parses a USD amount env var (e.g. "0.5") into cents
func getEnvUSDCents(key string, defaultCents int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return int64(parsed*100 + 0.5)
		}
	}
	return defaultCents
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:          "test",
		TicketPriceCents:     50,
		PrizeCents:           1000,
		MinBankCents:         1000,
		MinTicketsPerPayment: 2,
		AutoPayout:           true,
		PayoutCurrency:       "trx",
		OwnerPayoutCurrency:  "trx",
		IdempotencyNamespace: "cryptoluck-test",
		SeedCacheTTL:         time.Minute,
		DrawInterval:         time.Hour,
	}
}
