package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
)

type Config struct {
	// Server
	Port           string
	Environment    string
	AllowedOrigins []string

	// Storefront API
	StorefrontAPIURL string
	APITimeout       time.Duration
	APIRateLimit     float64
	APIRateBurst     int

	// Reviews
	ReviewPageSize int

	// Redis
	RedisURL        string
	RedisPassword   string
	ProductCacheTTL time.Duration

	// NATS
	NATSURL string

	// Browser sessions
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
	SessionCookieSecure  bool
}

func Load() *Config {
	apiTimeout, _ := strconv.Atoi(getEnv("API_TIMEOUT_SECONDS", "10"))
	apiRateLimit, _ := strconv.ParseFloat(getEnv("API_RATE_LIMIT", "50"), 64)
	apiRateBurst, _ := strconv.Atoi(getEnv("API_RATE_BURST", "10"))
	reviewPageSize, _ := strconv.Atoi(getEnv("REVIEW_PAGE_SIZE", "5"))
	productCacheTTL, _ := strconv.Atoi(getEnv("PRODUCT_CACHE_TTL_SECONDS", "300"))
	sessionIdle, _ := strconv.Atoi(getEnv("SESSION_IDLE_TIMEOUT_MINUTES", "30"))
	sessionSweep, _ := strconv.Atoi(getEnv("SESSION_SWEEP_INTERVAL_MINUTES", "5"))
	environment := getEnv("ENVIRONMENT", "development")
	cookieSecure, _ := strconv.ParseBool(getEnv("SESSION_COOKIE_SECURE", strconv.FormatBool(environment == "production")))

	if apiTimeout <= 0 {
		apiTimeout = 10
	}
	if reviewPageSize <= 0 {
		reviewPageSize = 5
	}
	if sessionIdle <= 0 {
		sessionIdle = 30
	}
	if sessionSweep <= 0 {
		sessionSweep = 5
	}

	return &Config{
		// Server
		Port:           getEnv("PORT", "8095"),
		Environment:    environment,
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Storefront API
		StorefrontAPIURL: getEnv("STOREFRONT_API_URL", "http://localhost:5000/api"),
		APITimeout:       time.Duration(apiTimeout) * time.Second,
		APIRateLimit:     apiRateLimit,
		APIRateBurst:     apiRateBurst,

		// Reviews
		ReviewPageSize: reviewPageSize,

		// Redis - password from GCP Secret Manager when enabled
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPassword:   secrets.GetRedisPassword(),
		ProductCacheTTL: time.Duration(productCacheTTL) * time.Second,

		// NATS - empty disables product event subscription
		NATSURL: os.Getenv("NATS_URL"),

		// Browser sessions
		SessionIdleTimeout:   time.Duration(sessionIdle) * time.Minute,
		SessionSweepInterval: time.Duration(sessionSweep) * time.Minute,
		SessionCookieSecure:  cookieSecure,
	}
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
