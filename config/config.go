package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the panel
type Config struct {
	Telegram TelegramConfig
	Bot      BotConfig
	Panel    PanelConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	S3       S3Config
	HTTP     HTTPConfig
	Logging  LoggingConfig
}

// TelegramConfig holds MTProto client configuration
type TelegramConfig struct {
	APIID          int
	APIHash        string
	SessionDir     string
	SessionBackend string // "file" or "postgres"
}

// BotConfig holds the administrator bot configuration
type BotConfig struct {
	Token            string
	AdminID          int64
	ChannelID        string // review channel: @username or numeric id
	ReportCheckBot   string
	ReportCheckDelay time.Duration
}

// PanelConfig holds tunables for session and bulk operation handling
type PanelConfig struct {
	ConfigPath     string
	MaxConcurrent  int // simultaneous in-flight provider calls during bulk fan-out
	MaxRetries     int
	MinActionDelay time.Duration
	MaxActionDelay time.Duration
	StartupDelay   time.Duration // pause between account connects at startup
	ConnectTimeout time.Duration
	ActionTimeout  time.Duration
}

// DatabaseConfig holds the optional Postgres session backend configuration
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
}

// KafkaConfig holds the optional audit event producer configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// S3Config holds the optional config backup uploader configuration
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// HTTPConfig holds the ops server configuration
type HTTPConfig struct {
	Port string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	adminID, err := strconv.ParseInt(getEnv("ADMIN_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
	}

	maxConcurrent, err := strconv.Atoi(getEnv("MAX_CONCURRENT_OPERATIONS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_OPERATIONS: %w", err)
	}

	maxRetries, err := strconv.Atoi(getEnv("MAX_RETRY_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_RETRY_ATTEMPTS: %w", err)
	}

	minDelay, err := time.ParseDuration(getEnv("MIN_ACTION_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_ACTION_DELAY: %w", err)
	}

	maxDelay, err := time.ParseDuration(getEnv("MAX_ACTION_DELAY", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ACTION_DELAY: %w", err)
	}

	startupDelay, err := time.ParseDuration(getEnv("STARTUP_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STARTUP_DELAY: %w", err)
	}

	connectTimeout, err := time.ParseDuration(getEnv("CONNECT_TIMEOUT", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONNECT_TIMEOUT: %w", err)
	}

	actionTimeout, err := time.ParseDuration(getEnv("ACTION_TIMEOUT", "45s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTION_TIMEOUT: %w", err)
	}

	reportDelay, err := time.ParseDuration(getEnv("REPORT_CHECK_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CHECK_DELAY: %w", err)
	}

	brokers := []string{}
	if brokersStr := getEnv("KAFKA_BROKERS", ""); brokersStr != "" {
		brokers = strings.Split(brokersStr, ",")
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			APIID:          apiID,
			APIHash:        getEnv("TELEGRAM_API_HASH", ""),
			SessionDir:     getEnv("TELEGRAM_SESSION_DIR", "./sessions"),
			SessionBackend: getEnv("SESSION_BACKEND", "file"),
		},
		Bot: BotConfig{
			Token:            getEnv("BOT_TOKEN", ""),
			AdminID:          adminID,
			ChannelID:        getEnv("CHANNEL_ID", ""),
			ReportCheckBot:   getEnv("REPORT_CHECK_BOT", "@SpamBot"),
			ReportCheckDelay: reportDelay,
		},
		Panel: PanelConfig{
			ConfigPath:     getEnv("PANEL_CONFIG_PATH", "./data/config.json"),
			MaxConcurrent:  maxConcurrent,
			MaxRetries:     maxRetries,
			MinActionDelay: minDelay,
			MaxActionDelay: maxDelay,
			StartupDelay:   startupDelay,
			ConnectTimeout: connectTimeout,
			ActionTimeout:  actionTimeout,
		},
		Database: DatabaseConfig{
			DSN:           getEnv("POSTGRES_DSN", ""),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   getEnv("KAFKA_TOPIC", "panel-events"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "panel-backups"),
			UseSSL:    getEnv("S3_USE_SSL", "false") == "true",
		},
		HTTP: HTTPConfig{
			Port: getEnv("HTTP_PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Sections groups the configuration sections for fx injection
type Sections struct {
	fx.Out

	Config   *Config
	Telegram *TelegramConfig
	Bot      *BotConfig
	Panel    *PanelConfig
	Database *DatabaseConfig
	Kafka    *KafkaConfig
	S3       *S3Config
	HTTP     *HTTPConfig
	Logging  *LoggingConfig
}

// Out loads the configuration and provides it, section by section, to the fx graph
func Out() (Sections, error) {
	cfg, err := Load()
	if err != nil {
		return Sections{}, err
	}
	return Sections{
		Config:   cfg,
		Telegram: &cfg.Telegram,
		Bot:      &cfg.Bot,
		Panel:    &cfg.Panel,
		Database: &cfg.Database,
		Kafka:    &cfg.Kafka,
		S3:       &cfg.S3,
		HTTP:     &cfg.HTTP,
		Logging:  &cfg.Logging,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("TELEGRAM_API_ID is required")
	}

	if c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	if c.Telegram.SessionBackend != "file" && c.Telegram.SessionBackend != "postgres" {
		return fmt.Errorf("SESSION_BACKEND must be \"file\" or \"postgres\", got %q", c.Telegram.SessionBackend)
	}

	if c.Telegram.SessionBackend == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when SESSION_BACKEND=postgres")
	}

	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	if c.Bot.AdminID == 0 {
		return fmt.Errorf("ADMIN_ID is required")
	}

	if c.Bot.ChannelID == "" {
		return fmt.Errorf("CHANNEL_ID is required")
	}

	if c.Panel.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT_OPERATIONS must be at least 1")
	}

	if c.Panel.MinActionDelay > c.Panel.MaxActionDelay {
		return fmt.Errorf("MIN_ACTION_DELAY must not exceed MAX_ACTION_DELAY")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
