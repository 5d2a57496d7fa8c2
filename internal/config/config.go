package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"crypto-invoice.backend/internal/domain/entities"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Wallet     WalletConfig
	Mail       MailConfig
	Functions  FunctionsConfig
	Validation ValidationConfig
	Blockchain BlockchainConfig
	Jobs       JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
	// AppOrigin is the SPA origin share links point at.
	AppOrigin string
	// PublicURL is where wallets reach this service (data callback URL).
	PublicURL string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// WalletConfig is handed to the SPA through /api/v1/config
type WalletConfig struct {
	APIKey         string
	DefaultChainID int64
	DefaultToken   string
	AttemptTTL     time.Duration
}

// MailConfig holds the transactional e-mail provider settings
type MailConfig struct {
	ResendAPIKey string
	ResendURL    string
	From         string
	Timeout      time.Duration
}

// FunctionsConfig guards the /functions/v1 endpoints
type FunctionsConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// ValidationConfig holds the data callback rule literals
type ValidationConfig struct {
	BlockedEmailDomain string
	BlockedCountryCode string
	BlockedCity        string
	PostalCodeMin      int
	PostalCodeMax      int
}

// BlockchainConfig holds RPC endpoints per chain id
type BlockchainConfig struct {
	VerifyReceipts bool
	CheckBalance   bool
	RPCURLs        map[int64]string
}

// JobsConfig holds background job settings
type JobsConfig struct {
	ExpiryInterval  time.Duration
	ExpiryBatchSize int
}

// MissingKeysError names every required variable that was not set
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

var requiredKeys = []string{"DB_HOST", "DB_PASSWORD", "WALLET_API_KEY", "RESEND_API_KEY"}

// Load reads configuration from the environment. A missing required key is
// reported as *MissingKeysError.
func Load() (*Config, error) {
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingKeysError{Keys: missing}
	}

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8080"),
			Env:       getEnv("SERVER_ENV", "development"),
			AppOrigin: strings.TrimRight(getEnv("APP_ORIGIN", "http://localhost:5173"), "/"),
			PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "crypto_invoice"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Wallet: WalletConfig{
			APIKey:         os.Getenv("WALLET_API_KEY"),
			DefaultChainID: int64(getEnvAsInt("DEFAULT_CHAIN_ID", int(entities.ChainIDBaseSepolia))),
			DefaultToken:   getEnv("DEFAULT_TOKEN_SYMBOL", "USDC"),
			AttemptTTL:     getEnvAsDuration("PAYMENT_ATTEMPT_TTL", 24*time.Hour),
		},
		Mail: MailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			ResendURL:    getEnv("RESEND_API_URL", "https://api.resend.com/emails"),
			From:         getEnv("MAIL_FROM", "Crypto Invoice <noreply@yourdomain.com>"),
			Timeout:      getEnvAsDuration("MAIL_TIMEOUT", 10*time.Second),
		},
		Functions: FunctionsConfig{
			JWTSecret:      getEnv("FUNCTIONS_JWT_SECRET", ""),
			AllowedOrigins: getEnvAsList("FUNCTIONS_ALLOWED_ORIGINS", []string{"https://api.wallet.coinbase.com"}),
			RateLimitRPS:   getEnvAsFloat("FUNCTIONS_RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvAsInt("FUNCTIONS_RATE_LIMIT_BURST", 40),
		},
		Validation: ValidationConfig{
			BlockedEmailDomain: getEnv("VALIDATION_BLOCKED_EMAIL_DOMAIN", "@example.com"),
			BlockedCountryCode: getEnv("VALIDATION_BLOCKED_COUNTRY", "XY"),
			BlockedCity:        getEnv("VALIDATION_BLOCKED_CITY", "nowhere"),
			PostalCodeMin:      getEnvAsInt("VALIDATION_POSTAL_MIN", 5),
			PostalCodeMax:      getEnvAsInt("VALIDATION_POSTAL_MAX", 10),
		},
		Blockchain: BlockchainConfig{
			VerifyReceipts: getEnvAsBool("BLOCKCHAIN_VERIFY_RECEIPTS", false),
			CheckBalance:   getEnvAsBool("BLOCKCHAIN_CHECK_BALANCE", false),
			RPCURLs: map[int64]string{
				entities.ChainIDBaseSepolia: getEnv("BASE_SEPOLIA_RPC_URL", "https://sepolia.base.org"),
				entities.ChainIDBase:        getEnv("BASE_RPC_URL", "https://mainnet.base.org"),
				entities.ChainIDEthereum:    getEnv("ETHEREUM_RPC_URL", ""),
				entities.ChainIDSepolia:     getEnv("SEPOLIA_RPC_URL", ""),
			},
		},
		Jobs: JobsConfig{
			ExpiryInterval:  getEnvAsDuration("INVOICE_EXPIRY_INTERVAL", time.Minute),
			ExpiryBatchSize: getEnvAsInt("INVOICE_EXPIRY_BATCH", 100),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
