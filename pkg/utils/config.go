package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"settlement-engine/internal/commission"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	AMQP       AMQPConfig
	Rates      RatesConfig
	PDF        PDFConfig
	MaxRetries int
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

// DSN builds the postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return c.buildURL("postgres")
}

// MigrationURL is the DSN addressed to the golang-migrate pgx5 driver.
func (c DatabaseConfig) MigrationURL() string {
	return c.buildURL("pgx5")
}

func (c DatabaseConfig) buildURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig leaves Addr empty when summaries should not be cached.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// AMQPConfig leaves URL empty when events should not be published.
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// RatesConfig is the fallback used when no rate row is in effect.
type RatesConfig struct {
	Commission float64
	IVA        float64
}

type PDFConfig struct {
	RendererURL string
	Timeout     time.Duration
}

// LoadConfig reads .env when present and lets the process environment
// override every key.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "settlement-engine")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SUMMARY_CACHE_TTL", "60s")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "marketplace.events")
	v.SetDefault("AMQP_QUEUE", "settlement.bookings")
	v.SetDefault("COMMISSION_RATE", 0.15)
	v.SetDefault("IVA_RATE", 0.19)
	v.SetDefault("PDF_RENDERER_URL", "")
	v.SetDefault("PDF_RENDERER_TIMEOUT", "15s")
	v.SetDefault("EXTERNAL_MAX_RETRIES", 3)

	if err := v.ReadInConfig(); err != nil {
		// containers configure through the environment only
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Port:    v.GetString("PORT"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("SUMMARY_CACHE_TTL"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
			Queue:    v.GetString("AMQP_QUEUE"),
		},
		Rates: RatesConfig{
			Commission: v.GetFloat64("COMMISSION_RATE"),
			IVA:        v.GetFloat64("IVA_RATE"),
		},
		PDF: PDFConfig{
			RendererURL: v.GetString("PDF_RENDERER_URL"),
			Timeout:     v.GetDuration("PDF_RENDERER_TIMEOUT"),
		},
		MaxRetries: v.GetInt("EXTERNAL_MAX_RETRIES"),
	}

	if err := commission.ValidateRates(commission.Rates{
		Commission: config.Rates.Commission,
		IVA:        config.Rates.IVA,
	}); err != nil {
		return nil, fmt.Errorf("COMMISSION_RATE/IVA_RATE: %w", err)
	}

	return config, nil
}
