package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	StorageDriver      string // "postgres" or "memory"
	Port               string
	IsProduction       bool
	LogLevel           string
	JWTSecret          string
	JWTIssuer          string
	MigrationsPath     string
	CORSAllowedOrigins []string
	RateLimit          string // ulule/limiter format, e.g. "100-M"

	// Audit sink. Events go to the log when RedisURL is empty.
	RedisURL    string
	AuditStream string

	// Ledger behaviour
	CurrencyCode        string
	CurrencyScale       int32
	SequenceMaxRetries  int
	AccountNameFallback bool
	DBOperationTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "estate-ledger")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("AUDIT_STREAM", "ledger:audit")
	viper.SetDefault("CURRENCY_CODE", "PKR")
	viper.SetDefault("CURRENCY_SCALE", 2)
	viper.SetDefault("SEQUENCE_MAX_RETRIES", 3)
	viper.SetDefault("ACCOUNT_NAME_FALLBACK", true)
	viper.SetDefault("DB_OPERATION_TIMEOUT", "15s")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:         viper.GetString("PGSQL_URL"),
		StorageDriver:       strings.ToLower(viper.GetString("STORAGE_DRIVER")),
		Port:                viper.GetString("PORT"),
		IsProduction:        viper.GetBool("IS_PRODUCTION"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		JWTSecret:           viper.GetString("JWT_SECRET"),
		JWTIssuer:           viper.GetString("JWT_ISSUER"),
		MigrationsPath:      viper.GetString("MIGRATIONS_PATH"),
		RateLimit:           viper.GetString("RATE_LIMIT"),
		RedisURL:            viper.GetString("REDIS_URL"),
		AuditStream:         viper.GetString("AUDIT_STREAM"),
		CurrencyCode:        strings.ToUpper(viper.GetString("CURRENCY_CODE")),
		CurrencyScale:       viper.GetInt32("CURRENCY_SCALE"),
		SequenceMaxRetries:  viper.GetInt("SEQUENCE_MAX_RETRIES"),
		AccountNameFallback: viper.GetBool("ACCOUNT_NAME_FALLBACK"),
	}

	switch cfg.StorageDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case "memory":
		log.Println("Warning: STORAGE_DRIVER=memory, ledger data will not survive a restart.")
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o := strings.TrimSpace(origin); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if cfg.CurrencyScale < 0 || cfg.CurrencyScale > 6 {
		log.Printf("Warning: CURRENCY_SCALE %d out of range. Defaulting to 2.\n", cfg.CurrencyScale)
		cfg.CurrencyScale = 2
	}

	if cfg.SequenceMaxRetries < 1 {
		cfg.SequenceMaxRetries = 1
	}

	timeoutStr := viper.GetString("DB_OPERATION_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 15 * time.Second
		log.Printf("Warning: Invalid value for DB_OPERATION_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.DBOperationTimeout = timeout

	if !cfg.AccountNameFallback {
		log.Println("Account role resolution limited to explicit mappings and exact codes.")
	}

	return cfg, nil
}
