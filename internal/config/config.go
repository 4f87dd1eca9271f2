package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Redis (tick broker / result store)
	RedisHost string
	RedisPort int
	RedisDB   int

	// Deribit API
	DeribitAPIURL string

	// Broker override; derived from Redis settings when empty
	brokerURL string

	// HTTP API
	APIPort         int
	CORSAllowOrigin string

	// Notifications
	WebhookURL string
	BotName    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "derbit_db"),
		DBUser:     envStr("DB_USER", "postgres"),
		DBPassword: envStr("DB_PASSWORD", "postgres"),

		// Redis
		RedisHost: envStr("REDIS_HOST", "localhost"),
		RedisPort: envInt("REDIS_PORT", 6379),
		RedisDB:   envInt("REDIS_DB", 0),

		// Deribit
		DeribitAPIURL: envStr("DERIBIT_API_URL", "https://www.deribit.com/api/v2"),

		brokerURL: envStr("BROKER_URL", ""),

		// API
		APIPort:         envInt("API_PORT", 8000),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Notifications
		WebhookURL: envStr("WEBHOOK_URL", ""),
		BotName:    envStr("BOT_NAME", "DeribitPriceWorker"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.DBUser == "" {
		errs = append(errs, "DB_USER is required")
	}
	if c.DBName == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if !strings.HasPrefix(c.DeribitAPIURL, "http") {
		errs = append(errs, "DERIBIT_API_URL must be an http(s) URL")
	}
	if c.WebhookURL == "" {
		fmt.Println("[WARN] WEBHOOK_URL not set — tick failures are logged only")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Deribit Price Service Configuration ===")
	fmt.Printf("Database: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	fmt.Printf("Broker: %s\n", c.BrokerURL())
	fmt.Printf("Deribit API: %s\n", c.DeribitAPIURL)
	fmt.Printf("API Port: %d\n", c.APIPort)
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Println("===========================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// BrokerURL returns BROKER_URL when set, otherwise the URL derived from
// the Redis host/port/db settings.
func (c *Config) BrokerURL() string {
	if c.brokerURL != "" {
		return c.brokerURL
	}
	return fmt.Sprintf("redis://%s:%d/%d", c.RedisHost, c.RedisPort, c.RedisDB)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
