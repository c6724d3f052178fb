package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Sweep    SweepConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver        string // DB_DRIVER: mysql (default) or sqlite
	DatabaseURL   string // DATABASE_URL - takes precedence over individual vars
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SQLitePath    string // SQLITE_PATH: file path for the sqlite driver
	MaxOpenConns  int    // DB_MAX_OPEN_CONNS: connection pool ceiling (sqlite is forced to 1)
	RunMigrations bool   // RUN_MIGRATIONS: apply embedded migrations on startup
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// AuthConfig holds token secrets for officer and admin access
type AuthConfig struct {
	JWTSecret  string // JWT_SECRET: HMAC secret for officer tokens
	AdminToken string // ADMIN_TOKEN: static operator token for admin routes
}

// SweepConfig holds priority sweep worker configuration
type SweepConfig struct {
	Enabled  bool   // PRIORITY_SWEEP_ENABLED: run the in-process sweep worker
	Schedule string // PRIORITY_SWEEP_SCHEDULE: cron spec, e.g. "@every 15m" or "*/10 * * * *"
	Timeout  int    // PRIORITY_SWEEP_TIMEOUT_SECONDS: upper bound of one sweep run
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:        getEnv("DB_DRIVER", "mysql"),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			Host:          getEnv("DB_HOST", "127.0.0.1"),
			Port:          getEnv("DB_PORT", "3306"),
			User:          os.Getenv("DB_USER"),
			Password:      os.Getenv("DB_PASSWORD"),
			DBName:        os.Getenv("DB_NAME"),
			SQLitePath:    getEnv("SQLITE_PATH", "civicreport.db"),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 10),
			RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", getEnv("SERVER_PORT", "8080")),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			AdminToken: os.Getenv("ADMIN_TOKEN"),
		},
		Sweep: SweepConfig{
			Enabled:  getEnvBool("PRIORITY_SWEEP_ENABLED", true),
			Schedule: getEnv("PRIORITY_SWEEP_SCHEDULE", "@every 15m"),
			Timeout:  getEnvInt("PRIORITY_SWEEP_TIMEOUT_SECONDS", 300),
		},
	}
}

// DSN returns the driver-specific data source name.
// DATABASE_URL wins when set; mysql DSNs always use UTC and parseTime.
func (c DatabaseConfig) DSN() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	switch c.Driver {
	case "mysql":
		if c.User == "" || c.DBName == "" {
			return "", fmt.Errorf("DB_USER and DB_NAME are required for mysql")
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.DBName), nil
	case "sqlite":
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", c.SQLitePath), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
}

// PoolSize returns the connection pool ceiling; sqlite allows a single writer
func (c DatabaseConfig) PoolSize() int {
	if c.Driver == "sqlite" {
		return 1
	}
	return c.MaxOpenConns
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
