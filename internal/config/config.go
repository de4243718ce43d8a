// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"
	"time"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Auth configuration
	Auth AuthConfig `json:"auth" mapstructure:"auth"`

	// Storage configuration
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required; there is no safe default.
	JWTSecret string `json:"-" mapstructure:"jwt_secret"`

	// TokenTTLHours is the session token lifetime in hours.
	TokenTTLHours int `json:"token_ttl_hours" mapstructure:"token_ttl_hours"`
}

// TokenTTL returns the configured token lifetime as a duration.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// StorageConfig holds database and document storage configuration.
type StorageConfig struct {
	// DatabasePath is the SQLite database file path.
	DatabasePath string `json:"database_path" mapstructure:"database_path"`

	// DocumentsPath is the JSON file backing the document store.
	DocumentsPath string `json:"documents_path" mapstructure:"documents_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stdout).
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
// Returns an error if configuration loading fails.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
// This should be used when you need to specify a non-default configuration file path.
// Returns an error if configuration loading fails.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance.
// It panics if the configuration cannot be loaded.
// Use this only when configuration is absolutely required and the application
// cannot proceed without it.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required fields are missing.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	if c.Auth.JWTSecret == "" {
		validationErrors = append(validationErrors, "auth.jwt_secret is required")
	}
	if c.Auth.TokenTTLHours <= 0 {
		validationErrors = append(validationErrors, "auth.token_ttl_hours must be positive")
	}

	if c.Storage.DatabasePath == "" {
		validationErrors = append(validationErrors, "storage.database_path is required")
	}
	if c.Storage.DocumentsPath == "" {
		validationErrors = append(validationErrors, "storage.documents_path is required")
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}

	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be one of: json, text",
			c.Logging.Format,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
