package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Drivers lists the accepted persistence.driver values
var Drivers = []string{"memory", "postgres", "pgx", "sqlite3", "redis"}

// Config represents the datamap configuration
type Config struct {
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Log         LogConfig         `mapstructure:"log"`
	Email       EmailConfig       `mapstructure:"email"`

	// File is the configuration file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// PersistenceConfig selects the backend
type PersistenceConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig represents the redis backend configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// EmailConfig tunes email verification
type EmailConfig struct {
	DNSCheck   bool          `mapstructure:"dns_check"`
	DNSTimeout time.Duration `mapstructure:"dns_timeout"`
}

// IsSQL reports whether the driver is served by database/sql
func (p PersistenceConfig) IsSQL() bool {
	switch p.Driver {
	case "postgres", "pgx", "sqlite3":
		return true
	}
	return false
}

// Load loads the configuration. An empty path searches the working directory
// for datamap.yml or datamap.yaml; a missing file there means defaults.
// Environment variables prefixed with DATAMAP_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("persistence.driver", "memory")
	v.SetDefault("persistence.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "datamap")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("email.dns_check", false)
	v.SetDefault("email.dns_timeout", 5*time.Second)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("datamap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DATAMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	known := false
	for _, d := range Drivers {
		if cfg.Persistence.Driver == d {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("persistence.driver must be one of %s, got: %s",
			strings.Join(Drivers, ", "), cfg.Persistence.Driver)
	}

	if cfg.Persistence.IsSQL() && cfg.Persistence.DSN == "" {
		return fmt.Errorf("persistence.dsn is required for driver %s", cfg.Persistence.Driver)
	}

	if cfg.Email.DNSTimeout <= 0 {
		return fmt.Errorf("email.dns_timeout must be positive, got: %s", cfg.Email.DNSTimeout)
	}

	return nil
}
