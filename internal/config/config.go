package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port              string `validate:"required,numeric"`
	Environment       string `validate:"oneof=development staging production test"`
	CORSAllowedOrigin string
	JWTSecret         string `validate:"required"`
	Database          DatabaseConfig
	Redis             RedisConfig
	Settlement        SettlementConfig
	Schedule          ScheduleConfig
	AWS               AWSConfig
	Telegram          TelegramConfig
	NotifyTimeout     time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	PrimaryDSN string `validate:"required"`
}

// RedisConfig points at the instance used for generation locks and push fan-out.
// An empty Addr runs both in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

type SettlementConfig struct {
	DefaultPlatformFeePercent decimal.Decimal
	InvoiceDueLagDays         int `validate:"gte=0,lte=60"`
	TimeZone                  string
	Location                  *time.Location `validate:"required"`
}

type ScheduleConfig struct {
	WeeklyInvoices string `validate:"required"`
	OverdueSweep   string `validate:"required"`
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SenderAddress   string `validate:"omitempty,email"`
}

// SESEnabled reports whether enough is configured to send real email.
func (c AWSConfig) SESEnabled() bool {
	return c.Region != "" && c.SenderAddress != ""
}

type TelegramConfig struct {
	BotToken      string
	RatePerSecond float64 `validate:"gt=0"`
}

// Load reads configuration from the process environment, falling back to an
// optional .env file and then to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PLATFORM_FEE_PERCENT", "10")
	v.SetDefault("INVOICE_DUE_LAG_DAYS", 5)
	v.SetDefault("TIMEZONE", "Europe/Skopje")
	v.SetDefault("INVOICE_WEEKLY_CRON", "0 0 * * 1")
	v.SetDefault("INVOICE_OVERDUE_CRON", "5 0 * * *")
	v.SetDefault("TELEGRAM_RATE_PER_SECOND", 20)
	v.SetDefault("NOTIFY_TIMEOUT_SECONDS", 10)

	v.AutomaticEnv()

	// It's okay if .env doesn't exist, we'll use env vars
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(v.GetString("PLATFORM_FEE_PERCENT")))
	if err != nil {
		return nil, fmt.Errorf("PLATFORM_FEE_PERCENT: %w", err)
	}
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("PLATFORM_FEE_PERCENT must be between 0 and 100, got %s", fee)
	}

	tz := strings.TrimSpace(v.GetString("TIMEZONE"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		Environment:       v.GetString("ENVIRONMENT"),
		CORSAllowedOrigin: strings.TrimSpace(v.GetString("CORS_ALLOWED_ORIGIN")),
		JWTSecret:         v.GetString("JWT_SECRET"),
		Database: DatabaseConfig{
			PrimaryDSN: v.GetString("DB_DSN_PRIMARY"),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Settlement: SettlementConfig{
			DefaultPlatformFeePercent: fee,
			InvoiceDueLagDays:         v.GetInt("INVOICE_DUE_LAG_DAYS"),
			TimeZone:                  tz,
			Location:                  loc,
		},
		Schedule: ScheduleConfig{
			WeeklyInvoices: v.GetString("INVOICE_WEEKLY_CRON"),
			OverdueSweep:   v.GetString("INVOICE_OVERDUE_CRON"),
		},
		AWS: AWSConfig{
			Region:          strings.TrimSpace(v.GetString("AWS_REGION")),
			AccessKeyID:     strings.TrimSpace(v.GetString("AWS_ACCESS_KEY_ID")),
			SecretAccessKey: strings.TrimSpace(v.GetString("AWS_SECRET_ACCESS_KEY")),
			SenderAddress:   strings.TrimSpace(v.GetString("SES_SENDER_ADDRESS")),
		},
		Telegram: TelegramConfig{
			BotToken:      strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
			RatePerSecond: v.GetFloat64("TELEGRAM_RATE_PER_SECOND"),
		},
		NotifyTimeout: time.Duration(v.GetInt("NOTIFY_TIMEOUT_SECONDS")) * time.Second,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production logging and gin release mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
