/*
Package config loads server configuration.

PURPOSE:
  Centralizes runtime settings: HTTP port, SQLite path, JWT secret,
  scheduler interval, CORS origins. Values come from a config file
  (config.yaml), environment variables, or built-in defaults, in that
  order of increasing precedence.

ENVIRONMENT VARIABLES:
  LEAVE_SERVER_PORT, LEAVE_DB_PATH, LEAVE_JWT_SECRET,
  LEAVE_SCHEDULER_INTERVAL, LEAVE_ALLOWED_ORIGINS
*/
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all server settings.
type Config struct {
	ServerPort        int           `mapstructure:"server_port"`
	DBPath            string        `mapstructure:"db_path"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	SchedulerEnabled  bool          `mapstructure:"scheduler_enabled"`
	SchedulerInterval time.Duration `mapstructure:"scheduler_interval"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	SeedCatalog       bool          `mapstructure:"seed_catalog"`
}

// Load reads configuration from the given file (optional), the
// environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server_port", 8080)
	v.SetDefault("db_path", "leave.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("scheduler_interval", time.Hour)
	v.SetDefault("allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("seed_catalog", true)

	v.SetEnvPrefix("LEAVE")
	v.AutomaticEnv()
	v.BindEnv("server_port", "LEAVE_SERVER_PORT")
	v.BindEnv("db_path", "LEAVE_DB_PATH")
	v.BindEnv("jwt_secret", "LEAVE_JWT_SECRET")
	v.BindEnv("scheduler_interval", "LEAVE_SCHEDULER_INTERVAL")
	v.BindEnv("allowed_origins", "LEAVE_ALLOWED_ORIGINS")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
