package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillm/coinbase-dca/internal/domain"
)

// Config holds all application settings
type Config struct {
	Coinbase CoinbaseConfig
	Strategy StrategyConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	APIPort  int
	LogLevel string
}

// CoinbaseConfig selects where API credentials come from. Source is an
// explicit parameter rather than a global execution-environment flag:
// "env" reads API_KEY/API_SECRET, "file" reads the two key files.
type CoinbaseConfig struct {
	BaseURL          string
	CredentialSource string
	KeyFile          string
	SecretFile       string
}

type StrategyConfig struct {
	Pair        domain.Pair
	Side        domain.Side
	QuoteAmount float64
	Interval    time.Duration
	RunOnStart  bool
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// Load reads configuration from the .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	pair, err := domain.ParsePair(getEnv("DCA_PAIR", string(domain.PairBTCUSDC)))
	if err != nil {
		return nil, fmt.Errorf("invalid DCA_PAIR: %w", err)
	}

	side, err := domain.ParseSide(getEnv("DCA_SIDE", string(domain.SideBuy)))
	if err != nil {
		return nil, fmt.Errorf("invalid DCA_SIDE: %w", err)
	}

	quoteAmount, err := strconv.ParseFloat(getEnv("DCA_QUOTE_AMOUNT", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DCA_QUOTE_AMOUNT: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("DCA_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DCA_INTERVAL: %w", err)
	}

	runOnStart, err := strconv.ParseBool(getEnv("DCA_RUN_ON_START", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DCA_RUN_ON_START: %w", err)
	}

	dbEnabled, err := strconv.ParseBool(getEnv("DB_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_ENABLED: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpenConns, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdleConns, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	apiPort, err := strconv.Atoi(getEnv("API_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_PORT: %w", err)
	}

	config := &Config{
		Coinbase: CoinbaseConfig{
			BaseURL:          getEnv("COINBASE_BASE_URL", domain.CoinbaseHost),
			CredentialSource: getEnv("CREDENTIAL_SOURCE", domain.CredentialSourceEnv),
			KeyFile:          getEnv("API_KEY_FILE", "api_key"),
			SecretFile:       getEnv("API_SECRET_FILE", "api_secret"),
		},
		Strategy: StrategyConfig{
			Pair:        pair,
			Side:        side,
			QuoteAmount: quoteAmount,
			Interval:    interval,
			RunOnStart:  runOnStart,
		},
		Database: DatabaseConfig{
			Enabled:         dbEnabled,
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            dbPort,
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "coinbase_dca"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpenConns,
			MaxIdleConns:    maxIdleConns,
			ConnMaxLifetime: connMaxLifetime,
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   chatID,
		},
		APIPort:  apiPort,
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required configuration fields
func (c *Config) Validate() error {
	if c.Strategy.QuoteAmount <= 0 {
		return fmt.Errorf("DCA_QUOTE_AMOUNT must be positive")
	}
	switch c.Coinbase.CredentialSource {
	case domain.CredentialSourceEnv, domain.CredentialSourceFile:
	default:
		return fmt.Errorf("CREDENTIAL_SOURCE must be %q or %q",
			domain.CredentialSourceEnv, domain.CredentialSourceFile)
	}
	if c.Database.Enabled && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required when DB_ENABLED=true")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LoadCredentials reads the Coinbase API key pair from the configured source
func LoadCredentials(cfg CoinbaseConfig) (domain.Credentials, error) {
	switch cfg.CredentialSource {
	case domain.CredentialSourceFile:
		key, err := readSecretFile(cfg.KeyFile)
		if err != nil {
			return domain.Credentials{}, err
		}
		secret, err := readSecretFile(cfg.SecretFile)
		if err != nil {
			return domain.Credentials{}, err
		}
		return domain.Credentials{Key: key, Secret: secret}, nil
	case domain.CredentialSourceEnv:
		key := os.Getenv("API_KEY")
		secret := os.Getenv("API_SECRET")
		if key == "" || secret == "" {
			return domain.Credentials{}, fmt.Errorf("API_KEY and API_SECRET are required")
		}
		return domain.Credentials{Key: key, Secret: secret}, nil
	}
	return domain.Credentials{}, fmt.Errorf("unknown credential source %q", cfg.CredentialSource)
}

// readSecretFile returns the first line of a credential file
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("credential file %s is empty", path)
	}
	return line, nil
}
