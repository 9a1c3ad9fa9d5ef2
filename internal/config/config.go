package config

import (
	"errors"
	"fmt"
	"os"

	"ductclean/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Notify     NotifyConfig     `yaml:"notify"`
	Payments   PaymentsConfig   `yaml:"payments"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LifecycleConfig tunes the booking/quote/invoice state machine policies.
type LifecycleConfig struct {
	QuoteExpiryDays int `yaml:"quote_expiry_days"`
	InvoiceDueDays  int `yaml:"invoice_due_days"`
	TaxRateBps      int `yaml:"tax_rate_bps"` // basis points, 825 = 8.25%
}

type NotifyConfig struct {
	MaxAttempts  int            `yaml:"max_attempts"`
	Email        EmailConfig    `yaml:"email"`
	SMS          SMSConfig      `yaml:"sms"`
	Telegram     TelegramConfig `yaml:"telegram"`
	PollInterval int            `yaml:"poll_interval_seconds"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SMSConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
	BaseURL    string `yaml:"base_url"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	OpsChatID int64  `yaml:"ops_chat_id"`
}

type PaymentsConfig struct {
	MercadoPagoToken string `yaml:"mercadopago_token"`
	MockMode         bool   `yaml:"mock_mode"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; keep going when it is absent.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing so secrets stay out of YAML.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Lifecycle.QuoteExpiryDays < 0 {
		return errors.New("lifecycle.quote_expiry_days must not be negative")
	}
	if c.Lifecycle.TaxRateBps < 0 {
		return errors.New("lifecycle.tax_rate_bps must not be negative")
	}
	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api.auth.enabled requires at least one api key")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Lifecycle.QuoteExpiryDays == 0 {
		c.Lifecycle.QuoteExpiryDays = models.DefaultQuoteExpiryDays
	}
	if c.Lifecycle.InvoiceDueDays == 0 {
		c.Lifecycle.InvoiceDueDays = models.DefaultInvoiceDueDays
	}

	if c.Notify.MaxAttempts == 0 {
		c.Notify.MaxAttempts = models.DefaultNotifyMaxAttempts
	}
	if c.Notify.PollInterval == 0 {
		c.Notify.PollInterval = 2
	}
	if c.Notify.SMS.BaseURL == "" {
		c.Notify.SMS.BaseURL = "https://api.twilio.com"
	}
}
