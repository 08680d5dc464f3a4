// Package config loads application configuration from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Env         string `mapstructure:"APP_ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	SwaggerHost string `mapstructure:"SWAGGER_HOST"`

	// DBDriver selects the registry backend: mysql or sqlite.
	DBDriver   string `mapstructure:"DB_DRIVER"`
	MySQLDSN   string `mapstructure:"MYSQL_DSN"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`
	RedisDB   int    `mapstructure:"REDIS_DB"`
	RedisPass string `mapstructure:"REDIS_PASSWORD"`

	JWTSecret  string `mapstructure:"JWT_SECRET"`
	JWTTTL     string `mapstructure:"JWT_TTL"`
	BcryptCost int    `mapstructure:"BCRYPT_COST"`

	// RiskConfigFile seeds the pricing tunables on first start.
	RiskConfigFile string `mapstructure:"RISK_CONFIG_FILE"`
	// PricingSeed fixes quote jitter and display ids when non-zero.
	PricingSeed uint64 `mapstructure:"PRICING_SEED"`

	VehicleProviderURL     string `mapstructure:"VEHICLE_PROVIDER_URL"`
	VehicleProviderAPIKey  string `mapstructure:"VEHICLE_PROVIDER_API_KEY"`
	VehicleProviderTimeout string `mapstructure:"VEHICLE_PROVIDER_TIMEOUT"`
	VehicleVINURL          string `mapstructure:"VEHICLE_VIN_URL"`

	// Seed administrator, used only by cmd/seed.
	AdminSeedEmail    string `mapstructure:"ADMIN_SEED_EMAIL"`
	AdminSeedPassword string `mapstructure:"ADMIN_SEED_PASSWORD"`
}

// Load reads .env (if present), then builds Config from the environment with sensible defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SWAGGER_HOST", "")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("MYSQL_DSN", "user:password@tcp(localhost:3306)/swiftpolicy?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("SQLITE_PATH", "swiftpolicy.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RISK_CONFIG_FILE", "")
	v.SetDefault("PRICING_SEED", 0)
	v.SetDefault("VEHICLE_PROVIDER_URL", "")
	v.SetDefault("VEHICLE_PROVIDER_API_KEY", "")
	v.SetDefault("VEHICLE_PROVIDER_TIMEOUT", "5s")
	v.SetDefault("VEHICLE_VIN_URL", "")
	v.SetDefault("ADMIN_SEED_EMAIL", "")
	v.SetDefault("ADMIN_SEED_PASSWORD", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "mysql", "sqlite":
	default:
		return nil, errors.New("config: DB_DRIVER must be mysql or sqlite")
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.Env == "production" && cfg.JWTSecret == "change-me" {
		return nil, errors.New("config: JWT_SECRET must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// TokenTTL parses JWTTTL. Returns 24h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ProviderTimeout parses VehicleProviderTimeout. Returns 5s if unset or invalid.
func (c *Config) ProviderTimeout() time.Duration {
	d, err := time.ParseDuration(c.VehicleProviderTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
